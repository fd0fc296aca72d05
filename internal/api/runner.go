package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Runner provides simple text-in/text-out Claude API calls.
type Runner struct {
	client *Client
}

// NewRunner creates a new API runner.
func NewRunner(client *Client) *Runner {
	return &Runner{client: client}
}

// Client returns the client the runner calls through.
func (r *Runner) Client() *Client {
	return r.client
}

// RunWithSystem sends one message with a system prompt and returns the
// concatenated text of the response.
func (r *Runner) RunWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     r.client.Model(),
		MaxTokens: r.client.MaxTokens(),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := r.client.sdk().Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("API call failed: %w", err)
	}

	r.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return extractText(resp), nil
}

// extractText joins the text blocks of a response.
func extractText(resp *anthropic.Message) string {
	var result strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.WriteString(variant.Text)
		}
	}
	return strings.TrimSpace(result.String())
}
