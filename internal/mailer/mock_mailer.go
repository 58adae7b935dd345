package mailer

import "sync"

// Email is one message captured by the mock instead of being delivered.
type Email struct {
	Recipient    string
	TemplateFile string
	Data         any
}

// MockMailer satisfies Mailer by recording every send for later
// assertions. Safe for concurrent use.
type MockMailer struct {
	mu   sync.Mutex
	sent []Email
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, Email{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})

	return nil
}

// GetSentEmails returns the captured messages in send order.
func (m *MockMailer) GetSentEmails() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Email(nil), m.sent...)
}
