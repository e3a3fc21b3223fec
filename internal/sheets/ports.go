package sheets

import (
	"context"

	"tracker/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter replaces the exported transaction ledger with txs, in the
	// order given.
	LedgerWriter interface {
		ReplaceLedger(ctx context.Context, txs []core.Transaction) (rows int, err error)
	}

	// LedgerReader reads back the exported ledger.
	LedgerReader interface {
		ReadLedger(ctx context.Context) ([]core.Transaction, error)
	}

	LedgerSink interface {
		LedgerWriter
		LedgerReader
	}
)
