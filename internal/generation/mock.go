package generation

import "context"

// MockGenerator is a canned Generator for tests.
type MockGenerator struct {
	Copy      EmailCopy
	CopyErr   error
	Suffix    int64
	SuffixErr error

	DraftCalls  int
	SuffixCalls int
}

// DraftEmail implements Generator.
func (m *MockGenerator) DraftEmail(_ context.Context, in EmailPromptInput) (EmailCopy, error) {
	m.DraftCalls++
	if err := in.Validate(); err != nil {
		return EmailCopy{}, err
	}
	if m.CopyErr != nil {
		return EmailCopy{}, m.CopyErr
	}
	return m.Copy, nil
}

// NumberSuffix implements Generator.
func (m *MockGenerator) NumberSuffix(_ context.Context, _ string) (int64, error) {
	m.SuffixCalls++
	if m.SuffixErr != nil {
		return 0, m.SuffixErr
	}
	return m.Suffix, nil
}

var _ Generator = (*MockGenerator)(nil)
