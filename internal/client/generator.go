package client

import (
	"context"
)

// TextGenerator sends one prompt to a hosted language model and returns the
// completion. No conversation state is kept between calls.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StaticGenerator returns a canned rebuttal. Used when no model API key is
// configured so the rest of the pipeline can be exercised locally.
type StaticGenerator struct {
	Text string
}

// DefaultStaticResponse is what StaticGenerator returns when Text is empty.
const DefaultStaticResponse = "You raised several thoughtful points and delivered them with conviction. " +
	"However, your argument leans on a single example and does not address the strongest objection. " +
	"Consider anticipating the counter-case and supporting each claim with evidence. " +
	"Keep practicing, because your delivery is already persuasive!"

func (g StaticGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.Text != "" {
		return g.Text, nil
	}
	return DefaultStaticResponse, nil
}
