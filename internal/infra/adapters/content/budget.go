package content

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer is the subset of a BPE encoding the budget needs.
type Tokenizer interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Budget clamps generated text to a token limit so a runaway completion
// never produces an oversized chat message.
type Budget struct {
	max int
	tok Tokenizer
}

// NewBudget uses the cl100k_base encoding. When the encoding cannot be loaded
// it falls back to a rune-count approximation (about four runes per token).
func NewBudget(maxTokens int) *Budget {
	b := &Budget{max: maxTokens}
	if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
		b.tok = enc
	}
	return b
}

func newBudgetWithTokenizer(maxTokens int, tok Tokenizer) *Budget {
	return &Budget{max: maxTokens, tok: tok}
}

// Count returns the token count of s.
func (b *Budget) Count(s string) int {
	if b.tok == nil {
		return (len([]rune(s)) + 3) / 4
	}
	return len(b.tok.Encode(s, nil, nil))
}

// Clamp cuts s to the budget, preferring the last sentence end inside it.
func (b *Budget) Clamp(s string) string {
	s = strings.TrimSpace(s)
	if b == nil || b.max <= 0 || s == "" {
		return s
	}
	var cut string
	if b.tok == nil {
		r := []rune(s)
		if len(r) <= b.max*4 {
			return s
		}
		cut = string(r[:b.max*4])
	} else {
		toks := b.tok.Encode(s, nil, nil)
		if len(toks) <= b.max {
			return s
		}
		cut = b.tok.Decode(toks[:b.max])
	}
	if i := strings.LastIndexAny(cut, ".!?…"); i > len(cut)/2 {
		return cut[:i+len(string([]rune(cut[i:])[0]))]
	}
	return strings.TrimSpace(cut) + "…"
}
