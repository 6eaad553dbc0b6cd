package folium

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer instruments rendering and data binding. Spans are no-ops
// unless the application registered a tracer provider.
var tracer trace.Tracer = otel.Tracer("github.com/Madongmingming/folium")
