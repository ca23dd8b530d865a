package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

// ReceiptFunc reports when the file at path arrived.
type ReceiptFunc func(path string) (time.Time, error)

// GrammarTransformer implements Transformer by applying a provider grammar and
// stamping filesystem receipt times where the grammar asks for them.
type GrammarTransformer struct {
	grammar domain.Grammar
	receipt ReceiptFunc
}

// NewTransformer creates a GrammarTransformer. receipt may be nil when the
// grammar does not read receipt times from the filesystem.
func NewTransformer(grammar domain.Grammar, receipt ReceiptFunc) *GrammarTransformer {
	return &GrammarTransformer{grammar: grammar, receipt: receipt}
}

func (t *GrammarTransformer) Transform(_ context.Context, path string) (domain.Record, error) {
	rec, err := t.grammar.Parse(path)
	if err != nil {
		return domain.Record{}, err
	}

	if t.grammar.Receipt == domain.ReceiptFilesystem && t.receipt != nil {
		received, err := t.receipt(path)
		if err != nil {
			return domain.Record{}, fmt.Errorf("receipt time: %w", err)
		}
		received = received.UTC()
		rec.ReceiptTime = &received
	}
	return rec, nil
}
