package suite

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
)

// MemoryRecorder keeps every result of a run in memory. It is safe for
// concurrent scenarios.
type MemoryRecorder struct {
	mu      sync.Mutex
	results []schemas.StepResult
}

var _ schemas.Recorder = (*MemoryRecorder)(nil)

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends the result.
func (m *MemoryRecorder) Record(_ context.Context, result schemas.StepResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
	return nil
}

// Results returns a copy of the recorded results in recording order.
func (m *MemoryRecorder) Results() []schemas.StepResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]schemas.StepResult(nil), m.results...)
}

// LogRecorder writes every result to a logger.
type LogRecorder struct {
	logger *zap.Logger
}

// NewLogRecorder creates a recorder logging through logger.
func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	return &LogRecorder{logger: logger.Named("steps")}
}

// Record logs successful steps at debug and the rest at warn.
func (l *LogRecorder) Record(_ context.Context, r schemas.StepResult) error {
	fields := []zap.Field{
		zap.String("scenario", r.Scenario),
		zap.String("step", r.Step),
		zap.String("outcome", string(r.Outcome)),
		zap.Duration("duration", r.Duration),
	}
	if r.Outcome.Succeeded() {
		l.logger.Debug("Step finished.", fields...)
		return nil
	}
	if r.Error != "" {
		fields = append(fields, zap.String("error", r.Error))
	}
	l.logger.Warn("Step did not pass.", fields...)
	return nil
}
