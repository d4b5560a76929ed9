// Package delivery coordinates rendering, email composition and transmission
// of finished documents.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/generation"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/logger"
)

// Stage identifies how far a delivery attempt progressed.
type Stage string

const (
	StageRequested    Stage = "requested"
	StageRendering    Stage = "rendering"
	StageComposing    Stage = "composing"
	StageTransmitting Stage = "transmitting"
	StageDelivered    Stage = "delivered"
	StageFailed       Stage = "failed"
)

// Result describes the outcome of one delivery attempt.
// Err carries the terminal error for failed attempts; FailedAt names the
// stage that failed.
type Result struct {
	Success      bool
	Recipient    string
	Subject      string
	UsedFallback bool

	// Artifact is the rendered PDF, set once rendering succeeded
	Artifact []byte

	FailedAt Stage
	Err      error
}

// Renderer produces the PDF artifact for a record.
type Renderer interface {
	Render(rec *document.Record) ([]byte, error)
}

// Options tweaks a single delivery.
type Options struct {
	// RecipientOverride replaces the counterparty email when set
	RecipientOverride string
}

// Config configures the orchestrator.
type Config struct {
	// ComposeTimeout caps the generation step (default 20s)
	ComposeTimeout time.Duration

	// SendTimeout caps the transport step (default 30s)
	SendTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.ComposeTimeout <= 0 {
		c.ComposeTimeout = 20 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
}

// Orchestrator runs the delivery pipeline for one document at a time.
// It never panics across its boundary and never returns a bare error:
// every outcome, success or failure, is reported as a Result.
type Orchestrator struct {
	renderer  Renderer
	generator generation.Generator
	transport Transport
	cfg       Config
}

// NewOrchestrator wires the pipeline. The generator may be nil, in which
// case composition always uses the fallback templates.
func NewOrchestrator(renderer Renderer, generator generation.Generator, transport Transport, cfg Config) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		renderer:  renderer,
		generator: generator,
		transport: transport,
		cfg:       cfg,
	}
}

// Deliver renders the record, composes the email and transmits it.
//
// The recipient is resolved before any I/O happens; a missing recipient
// fails fast without touching the renderer or the transport. A generation
// failure is not fatal: composition degrades to the built-in templates and
// delivery proceeds.
func (o *Orchestrator) Deliver(ctx context.Context, rec *document.Record, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "delivery panicked", "document_id", rec.ID, "panic", r)
			res = Result{
				FailedAt: StageFailed,
				Err:      apperror.NewInternal(fmt.Errorf("delivery panic: %v", r)),
			}
		}
	}()

	recipient := strings.TrimSpace(opts.RecipientOverride)
	if recipient == "" {
		recipient = strings.TrimSpace(rec.CounterpartyEmail)
	}
	if recipient == "" {
		return Result{
			FailedAt: StageRequested,
			Err:      apperror.NewMissingRecipient(rec.ID),
		}
	}

	logger.Info(ctx, "delivery started",
		"document_id", rec.ID, "number", rec.Number, "recipient", recipient)

	artifact, err := o.renderer.Render(rec)
	if err != nil {
		logger.Error(ctx, "rendering failed", "document_id", rec.ID, "error", err)
		return Result{Recipient: recipient, FailedAt: StageRendering, Err: err}
	}

	subject, body, usedFallback := o.compose(ctx, rec)

	msg := Message{
		To:      recipient,
		Subject: subject,
		Body:    body,
		Attachments: []Attachment{{
			Filename:    rec.Number + ".pdf",
			ContentType: "application/pdf",
			Content:     artifact,
		}},
	}

	sendCtx, cancel := context.WithTimeout(ctx, o.cfg.SendTimeout)
	defer cancel()
	if err := o.transport.Send(sendCtx, msg); err != nil {
		logger.Error(ctx, "transmission failed", "document_id", rec.ID, "error", err)
		return Result{
			Recipient:    recipient,
			Subject:      subject,
			UsedFallback: usedFallback,
			Artifact:     artifact,
			FailedAt:     StageTransmitting,
			Err:          apperror.NewDeliveryFailure(err),
		}
	}

	logger.Info(ctx, "delivery completed",
		"document_id", rec.ID, "number", rec.Number, "fallback", usedFallback)

	return Result{
		Success:      true,
		Recipient:    recipient,
		Subject:      subject,
		UsedFallback: usedFallback,
		Artifact:     artifact,
	}
}

// compose asks the generator for email copy and falls back to the built-in
// templates when generation is unavailable or misbehaves.
func (o *Orchestrator) compose(ctx context.Context, rec *document.Record) (subject, body string, usedFallback bool) {
	if o.generator != nil {
		composeCtx, cancel := context.WithTimeout(ctx, o.cfg.ComposeTimeout)
		defer cancel()

		draft, err := o.generator.DraftEmail(composeCtx, generation.EmailPromptInput{
			CustomerName:   rec.CounterpartyName,
			DocumentType:   string(rec.Type),
			DocumentNumber: rec.Number,
			DueDate:        formatDate(rec.DueDate),
			TotalAmount:    rec.Totals.Total.StringFixed(2),
		})
		if err == nil {
			return draft.Subject, draft.Body, false
		}
		logger.Warn(ctx, "email generation failed, using fallback template",
			"document_id", rec.ID, "error", err)
	}

	subject, body = fallbackCopy(rec)
	return subject, body, true
}

var fallbackBodyTmpl = template.Must(template.New("body").Parse(
	`Dear {{.Name}},

please find {{.Kind}} {{.Number}} attached{{if .Total}} with a total of {{.Total}}{{end}}.
{{- if .DueDate}}
Payment is due by {{.DueDate}}.
{{- end}}

Kind regards
`))

// fallbackCopy builds deterministic subject and body for a record.
// Both always contain the document number.
func fallbackCopy(rec *document.Record) (string, string) {
	kind, label := "invoice", "Invoice"
	if rec.Type == document.TypeQuote {
		kind, label = "quote", "Quote"
	}

	subject := fmt.Sprintf("%s %s", label, rec.Number)

	// A zero total reads odd in the letter, so the clause is dropped.
	total := ""
	if rec.Totals.Total.IsPositive() {
		total = rec.Totals.Total.StringFixed(2)
	}

	var b strings.Builder
	_ = fallbackBodyTmpl.Execute(&b, map[string]string{
		"Name":    rec.CounterpartyName,
		"Kind":    kind,
		"Number":  rec.Number,
		"Total":   total,
		"DueDate": formatDate(rec.DueDate),
	})
	return subject, b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
