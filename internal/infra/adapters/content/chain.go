package content

import (
	"context"
	"errors"
	"strings"
)

var _ Generator = (*ChainGenerator)(nil)

// ChainGenerator asks each backend in order and returns the first non-empty
// completion. Name and Model report the first backend.
type ChainGenerator struct {
	gens []Generator
}

func NewChainGenerator(gens ...Generator) (*ChainGenerator, error) {
	var live []Generator
	for _, g := range gens {
		if g != nil {
			live = append(live, g)
		}
	}
	if len(live) == 0 {
		return nil, errors.New("no generator configured")
	}
	return &ChainGenerator{gens: live}, nil
}

func (c *ChainGenerator) Name() string {
	names := make([]string, len(c.gens))
	for i, g := range c.gens {
		names[i] = g.Name()
	}
	return strings.Join(names, ">")
}

func (c *ChainGenerator) Model() string { return c.gens[0].Model() }

func (c *ChainGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, int, error) {
	var errs []error
	for _, g := range c.gens {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		text, n, err := g.Generate(ctx, system, prompt, maxTokens)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, n, nil
		}
		if err == nil {
			err = errors.New(g.Name() + ": empty completion")
		}
		errs = append(errs, err)
	}
	return "", 0, errors.Join(errs...)
}
