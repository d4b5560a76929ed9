package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
)

// fakeCompleter returns scripted responses, one per call.
type fakeCompleter struct {
	responses []string
	errs      []error
	calls     int
	lastReq   openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := f.calls
	f.calls++
	f.lastReq = req
	if i < len(f.errs) && f.errs[i] != nil {
		return openai.ChatCompletionResponse{}, f.errs[i]
	}
	content := ""
	if i < len(f.responses) {
		content = f.responses[i]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

func validInput() EmailPromptInput {
	return EmailPromptInput{
		CustomerName:   "Acme GmbH",
		DocumentType:   "invoice",
		DocumentNumber: "INV-2026-00042",
		DueDate:        "2026-09-30",
		TotalAmount:    "32.40 EUR",
	}
}

func TestDraftEmail_Success(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		`{"subject": "Invoice INV-2026-00042", "body": "Dear Acme GmbH,\n\nplease find invoice INV-2026-00042 attached."}`,
	}}
	gen := New(fake, DefaultConfig())

	draft, err := gen.DraftEmail(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-2026-00042", draft.Subject)
	assert.Contains(t, draft.Body, "INV-2026-00042")
	assert.Equal(t, 1, fake.calls)
}

func TestDraftEmail_StripsMarkdownFence(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		"```json\n{\"subject\": \"Quote QUO-2026-00007\", \"body\": \"Hello\"}\n```",
	}}
	gen := New(fake, DefaultConfig())

	draft, err := gen.DraftEmail(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "Quote QUO-2026-00007", draft.Subject)
}

func TestDraftEmail_MissingInputs(t *testing.T) {
	fake := &fakeCompleter{}
	gen := New(fake, DefaultConfig())

	_, err := gen.DraftEmail(context.Background(), EmailPromptInput{DocumentType: "invoice"})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidPromptInput))
	assert.Equal(t, 0, fake.calls, "invalid input must not reach the upstream client")
}

func TestDraftEmail_MalformedOutput(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"sorry, I cannot help", "still not JSON"}}
	gen := New(fake, DefaultConfig())

	_, err := gen.DraftEmail(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeMalformedGenerationOutput))
}

func TestDraftEmail_EmptyBodyIsMalformed(t *testing.T) {
	fake := &fakeCompleter{responses: []string{`{"subject": "x", "body": "  "}`}}
	gen := New(fake, DefaultConfig())

	_, err := gen.DraftEmail(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeMalformedGenerationOutput))
}

func TestDraftEmail_RetriesTransportErrors(t *testing.T) {
	fake := &fakeCompleter{
		errs: []error{errors.New("upstream 503"), nil},
		responses: []string{
			"",
			`{"subject": "Invoice INV-2026-00042", "body": "attached"}`,
		},
	}
	gen := New(fake, DefaultConfig())

	draft, err := gen.DraftEmail(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-2026-00042", draft.Subject)
	assert.Equal(t, 2, fake.calls)
}

func TestDraftEmail_ExhaustsRetries(t *testing.T) {
	fake := &fakeCompleter{errs: []error{
		errors.New("upstream 503"), errors.New("upstream 503"), errors.New("upstream 503"),
	}}
	cfg := DefaultConfig()
	cfg.MaxRetries = 3
	gen := New(fake, cfg)

	_, err := gen.DraftEmail(context.Background(), validInput())
	require.Error(t, err)
	assert.Equal(t, 3, fake.calls)
}

func TestNumberSuffix(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"4711"}}
	gen := New(fake, DefaultConfig())

	suffix, err := gen.NumberSuffix(context.Background(), "owner-1_INV_2026")
	require.NoError(t, err)
	assert.Equal(t, int64(4711), suffix)
}

func TestNumberSuffix_RejectsNonNumeric(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"the next number is 12"}}
	gen := New(fake, DefaultConfig())

	_, err := gen.NumberSuffix(context.Background(), "owner-1_INV_2026")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeMalformedGenerationOutput))
}

func TestNumberSuffix_RejectsOutOfRange(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"123456"}}
	gen := New(fake, DefaultConfig())

	_, err := gen.NumberSuffix(context.Background(), "owner-1_INV_2026")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeMalformedGenerationOutput))
}

func TestNumberSuffix_EmptyScope(t *testing.T) {
	gen := New(&fakeCompleter{}, DefaultConfig())

	_, err := gen.NumberSuffix(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidPromptInput))
}

func TestConfigDefaults(t *testing.T) {
	gen := New(&fakeCompleter{responses: []string{"1"}}, Config{})
	assert.Equal(t, "gpt-4o-mini", gen.cfg.Model)
	assert.Equal(t, 2, gen.cfg.MaxRetries)
}
