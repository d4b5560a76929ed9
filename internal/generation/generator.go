// Package generation adapts a chat-completion model into typed content
// generators for document delivery and numbering.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/logger"
)

// ChatCompleter is the slice of the OpenAI client the generators use.
// *openai.Client satisfies it; tests substitute a fake.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the generators.
type Config struct {
	// Model is the chat model name (default gpt-4o-mini)
	Model string

	// Temperature for completions
	Temperature float32

	// MaxRetries bounds attempts per request (default 2)
	MaxRetries int

	// RequestTimeout caps each upstream call (default 15s)
	RequestTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Model:          "gpt-4o-mini",
		Temperature:    0.3,
		MaxRetries:     2,
		RequestTimeout: 15 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
}

// EmailPromptInput is the context a draft email is built from.
type EmailPromptInput struct {
	CustomerName   string
	DocumentType   string
	DocumentNumber string
	DueDate        string
	TotalAmount    string
	Link           string
}

// Validate rejects inputs that cannot produce a meaningful prompt.
func (in EmailPromptInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.CustomerName) == "" {
		missing = append(missing, "customer_name")
	}
	if strings.TrimSpace(in.DocumentNumber) == "" {
		missing = append(missing, "document_number")
	}
	if strings.TrimSpace(in.DocumentType) == "" {
		missing = append(missing, "document_type")
	}
	if len(missing) > 0 {
		return apperror.NewInvalidPromptInput(
			"missing prompt fields: " + strings.Join(missing, ", "))
	}
	return nil
}

// EmailCopy is a generated email subject and body.
type EmailCopy struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Generator produces model-drafted content.
type Generator interface {
	// DraftEmail returns a subject and body for the delivery email.
	DraftEmail(ctx context.Context, in EmailPromptInput) (EmailCopy, error)

	// NumberSuffix proposes a numeric document number suffix for a scope.
	NumberSuffix(ctx context.Context, scope string) (int64, error)
}

// OpenAIGenerator implements Generator on top of a chat-completion client.
type OpenAIGenerator struct {
	client ChatCompleter
	cfg    Config
}

// New creates a generator. The client is injected so tests can fake it.
func New(client ChatCompleter, cfg Config) *OpenAIGenerator {
	cfg.applyDefaults()
	return &OpenAIGenerator{client: client, cfg: cfg}
}

// DraftEmail implements Generator.
func (g *OpenAIGenerator) DraftEmail(ctx context.Context, in EmailPromptInput) (EmailCopy, error) {
	const op = "generation.DraftEmail"

	if err := in.Validate(); err != nil {
		return EmailCopy{}, err
	}

	content, err := g.complete(ctx, emailSystemPrompt, buildEmailPrompt(in))
	if err != nil {
		return EmailCopy{}, fmt.Errorf("%s: %w", op, err)
	}

	var draft EmailCopy
	if err := json.Unmarshal([]byte(extractJSON(content)), &draft); err != nil {
		return EmailCopy{}, apperror.NewMalformedGenerationOutput(
			fmt.Sprintf("response is not valid JSON: %v", err))
	}
	draft.Subject = strings.TrimSpace(draft.Subject)
	draft.Body = strings.TrimSpace(draft.Body)
	if draft.Subject == "" || draft.Body == "" {
		return EmailCopy{}, apperror.NewMalformedGenerationOutput("empty subject or body")
	}

	return draft, nil
}

// NumberSuffix implements Generator.
func (g *OpenAIGenerator) NumberSuffix(ctx context.Context, scope string) (int64, error) {
	const op = "generation.NumberSuffix"

	if strings.TrimSpace(scope) == "" {
		return 0, apperror.NewInvalidPromptInput("missing prompt fields: scope")
	}

	prompt := fmt.Sprintf(
		"Propose the next document number for sequence scope %q. "+
			"Respond with a single integer between 1 and 99999, digits only.", scope)

	content, err := g.complete(ctx, suffixSystemPrompt, prompt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	suffix, err := strconv.ParseInt(strings.TrimSpace(content), 10, 64)
	if err != nil || suffix < 1 || suffix > 99999 {
		return 0, apperror.NewMalformedGenerationOutput(
			fmt.Sprintf("not a valid number suffix: %q", content))
	}
	return suffix, nil
}

// complete runs the retry loop around one chat-completion request.
func (g *OpenAIGenerator) complete(ctx context.Context, system, user string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= g.cfg.MaxRetries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
		resp, err := g.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model:       g.cfg.Model,
			Temperature: g.cfg.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			MaxTokens: 500,
		})
		cancel()

		if err != nil {
			lastErr = err
			logger.Warn(ctx, "completion request failed",
				"attempt", attempt, "max_retries", g.cfg.MaxRetries, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no choices in response")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("all %d attempts failed: %w", g.cfg.MaxRetries, lastErr)
}

const emailSystemPrompt = `You write short, professional business emails that accompany ` +
	`invoices and quotes. Respond with valid JSON only, no surrounding text, ` +
	`in the shape {"subject": "...", "body": "..."}. The body is plain text, ` +
	`at most three short paragraphs, and must mention the document number.`

const suffixSystemPrompt = `You allocate document sequence numbers. ` +
	`Respond with a single integer, digits only, no other text.`

func buildEmailPrompt(in EmailPromptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an email to %s about %s %s.\n",
		in.CustomerName, in.DocumentType, in.DocumentNumber)
	if in.TotalAmount != "" {
		fmt.Fprintf(&b, "Total amount: %s\n", in.TotalAmount)
	}
	if in.DueDate != "" {
		fmt.Fprintf(&b, "Due date: %s\n", in.DueDate)
	}
	if in.Link != "" {
		fmt.Fprintf(&b, "The document can be viewed at: %s\n", in.Link)
	}
	return b.String()
}

// extractJSON trims markdown fences some models wrap around JSON output.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

var _ Generator = (*OpenAIGenerator)(nil)
