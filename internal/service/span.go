package service

import (
	"errors"

	"storefront/internal/model"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// finishSpan records err on span and ends it. Domain errors are caller mistakes,
// so they are recorded without marking the span failed.
func finishSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	span.RecordError(err)
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return
	}
	span.SetStatus(codes.Error, err.Error())
}
