package pipeline

import (
	"context"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
)

// TelemetryTransformer implements Transformer using domain.NewTelemetryEvent.
type TelemetryTransformer struct{}

// NewTransformer creates a TelemetryTransformer.
func NewTransformer() *TelemetryTransformer {
	return &TelemetryTransformer{}
}

func (t *TelemetryTransformer) Transform(_ context.Context, rec domain.SensorRecord) (domain.TelemetryEvent, error) {
	return domain.NewTelemetryEvent(rec)
}
