package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartRental/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	t.Parallel()

	r := openTestRecorder(t)
	ctx := context.Background()

	irr := 0.1722
	npv := 12345.6
	ok := &model.Evaluation{
		ID:           "a",
		Name:         "madrid-centro",
		EvaluatedAt:  time.Unix(1_700_000_000, 0),
		NightlyPrice: 210.25,
		PriceSource:  model.PriceSourceInput,
		Assumptions:  model.DefaultAssumptions(),
		Costs:        model.InvestmentCosts{PropertyCost: 150000, FurnishingCost: 20000},
		CashFlows:    model.CashFlowSeries{-170000, 36792.5, 36792.5},
		IRR:          &irr,
		NPVAtTarget:  &npv,
		Verdict:      model.VerdictFavorable,
		Rating:       "strong",
	}
	failed := &model.Evaluation{
		ID:             "b",
		Name:           "zero",
		EvaluatedAt:    time.Unix(1_700_000_100, 0),
		PriceSource:    model.PriceSourceInput,
		Assumptions:    model.DefaultAssumptions(),
		FailureKind:    "InvalidPrice",
		FailureMessage: "invalid nightly price: 0",
		Verdict:        model.VerdictUndetermined,
	}
	require.NoError(t, r.RecordEvaluation(ctx, ok))
	require.NoError(t, r.RecordEvaluation(ctx, failed))

	rows, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "b", rows[0].ID)
	assert.Nil(t, rows[0].IRR)
	assert.Nil(t, rows[0].CashFlows)
	assert.Equal(t, "InvalidPrice", rows[0].FailureKind)
	assert.Equal(t, model.VerdictUndetermined, rows[0].Verdict)

	assert.Equal(t, "a", rows[1].ID)
	require.NotNil(t, rows[1].IRR)
	assert.Equal(t, irr, *rows[1].IRR)
	assert.Equal(t, ok.CashFlows, rows[1].CashFlows)
	assert.Equal(t, "none", rows[1].TerminalMode)
	assert.Equal(t, model.VerdictFavorable, rows[1].Verdict)

	limited, err := r.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRecorder_DuplicateID(t *testing.T) {
	t.Parallel()

	r := openTestRecorder(t)
	ev := &model.Evaluation{ID: "dup", EvaluatedAt: time.Now(), Verdict: model.VerdictUndetermined}
	require.NoError(t, r.RecordEvaluation(context.Background(), ev))
	assert.Error(t, r.RecordEvaluation(context.Background(), ev))
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordEvaluation(context.Background(), &model.Evaluation{}))
	rows, err := r.Recent(context.Background(), 5)
	assert.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, r.Close())
}
