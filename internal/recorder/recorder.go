package recorder

import (
	"context"
	"time"

	"SmartRental/internal/model"
)

// Summary is one stored evaluation as read back from history.
type Summary struct {
	ID           string
	Name         string
	EvaluatedAt  time.Time
	NightlyPrice float64
	PriceSource  string
	TerminalMode string
	CashFlows    model.CashFlowSeries
	IRR          *float64
	FailureKind  string
	Verdict      model.Verdict
}

// Recorder persists evaluations for later analysis. Nothing in an evaluation
// reads from it.
type Recorder interface {
	RecordEvaluation(ctx context.Context, ev *model.Evaluation) error
	Recent(ctx context.Context, limit int) ([]Summary, error)
	Close() error
}
