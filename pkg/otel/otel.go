// Package otel holds the package-scoped tracer used by the stores.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const name = "github.com/greener-project/greener/pkg/otel"

var Tracer trace.Tracer = otel.Tracer(name)
