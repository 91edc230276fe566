package recorder

import (
	"context"

	"SmartRental/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordEvaluation(context.Context, *model.Evaluation) error { return nil }
func (n *NoopRecorder) Recent(context.Context, int) ([]Summary, error)            { return nil, nil }
func (n *NoopRecorder) Close() error                                              { return nil }
