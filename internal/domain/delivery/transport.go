package delivery

import (
	"context"
	"sync"
)

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outgoing email.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Transport sends messages. Implementations live in infrastructure.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// MockTransport records sent messages for tests.
type MockTransport struct {
	mu   sync.Mutex
	Sent []Message

	// Err, when set, is returned from every Send call.
	Err error
}

// Send implements Transport.
func (m *MockTransport) Send(_ context.Context, msg Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

var _ Transport = (*MockTransport)(nil)
