package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceRoundTrip(t *testing.T) {
	trace := NewTraceContext()
	require.NotEmpty(t, trace.TraceID)
	require.NotEmpty(t, trace.RequestID)
	assert.Len(t, trace.SpanID, 16)

	ctx := WithTrace(context.Background(), trace)
	assert.Equal(t, trace, GetTrace(ctx))
	assert.Equal(t, trace.TraceID, GetTraceID(ctx))
	assert.Equal(t, trace.RequestID, GetRequestID(ctx))
}

func TestTraceAbsent(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetTrace(ctx))
	assert.Empty(t, GetRequestID(ctx))
	// Background work still gets a usable trace ID.
	assert.NotEmpty(t, GetTraceID(ctx))
}
