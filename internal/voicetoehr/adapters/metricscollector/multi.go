package metricscollector

import (
	"context"
	"errors"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

// Multi fans a sample out to every collector
type Multi []core.MetricsCollector

func (m Multi) RecordTranscription(ctx context.Context, metrics core.TranscriptionMetrics) error {
	var errs []error
	for _, collector := range m {
		if err := collector.RecordTranscription(ctx, metrics); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
