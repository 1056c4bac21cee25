package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLang is the only catalog shipped with the bot.
const DefaultLang = "ru"

type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))

	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = langCode
	return t, nil
}

// MustDefault loads the embedded default catalog; it panics on a broken build.
func MustDefault() *Translator {
	t, err := NewTranslator(LocalesFS, DefaultLang)
	if err != nil {
		panic(err)
	}
	return t
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T returns the message for key, formatted with args. Unknown keys return the key itself.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

func (t *Translator) Has(key string) bool {
	_, ok := t.translations[key]
	return ok
}

func (t *Translator) Lang() string { return t.lang }
