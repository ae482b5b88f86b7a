package testutils

import (
	"context"
	"fmt"

	"github.com/inkwellco/inkwell/pkg/vector"
)

// MockVectorDriver is a test vector driver that records writes and serves
// canned query results.
type MockVectorDriver struct {
	// Results are returned from Query, already sorted by descending score.
	Results []vector.QueryResult

	// Upserted and Deleted record every write for assertions.
	Upserted []vector.Document
	Deleted  []string

	// FailUpsert, FailQuery, and FailDelete force the corresponding
	// operation to return an error.
	FailUpsert bool
	FailQuery  bool
	FailDelete bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Upsert(_ context.Context, docs []vector.Document) error {
	if m.FailUpsert {
		return fmt.Errorf("mock vector upsert failure")
	}

	m.Upserted = append(m.Upserted, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryResult, error) {
	if m.FailQuery {
		return nil, fmt.Errorf("mock vector query failure")
	}

	if len(m.Results) < topK {
		return m.Results, nil
	}
	return m.Results[:topK], nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	if m.FailDelete {
		return fmt.Errorf("mock vector delete failure")
	}

	m.Deleted = append(m.Deleted, ids...)
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
