package mocks

import "context"

// MockTxRunner runs the unit of work directly and records how it settled,
// standing in for a real database transaction in unit tests.
type MockTxRunner struct {
	Commits   int
	Rollbacks int
}

func (m *MockTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err != nil {
		m.Rollbacks++
		return err
	}

	m.Commits++
	return nil
}
