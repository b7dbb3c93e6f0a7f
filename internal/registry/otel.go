package registry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fieldview/fieldview/internal/registry"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
