package recorder

import "SpotSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDay(_ *model.DayReport) error            { return nil }
func (n *NoopRecorder) LoadDay(_, _ string) (*model.DayReport, error) { return nil, ErrNotFound }
func (n *NoopRecorder) Close() error                                  { return nil }
