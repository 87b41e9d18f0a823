package llm

import "context"

// MockClient is a configurable test double for Client. Set the function
// fields to control behavior; nil fields return zero values.
type MockClient struct {
	GenerateFunc  func(ctx context.Context, prompt string, config ModelConfig) (string, error)
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// Call tracking for verification.
	GenerateCalls  int
	EmbedTextCalls int

	// Prompts records every prompt passed to Generate.
	Prompts []string
}

// Generate implements Client.
func (m *MockClient) Generate(ctx context.Context, prompt string, config ModelConfig) (string, error) {
	m.GenerateCalls++
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, config)
	}
	return "", nil
}

// EmbedText implements Client.
func (m *MockClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.EmbedTextCalls++
	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return nil, nil
}

// Close implements Client.
func (m *MockClient) Close() error {
	return nil
}

var _ Client = (*MockClient)(nil)
