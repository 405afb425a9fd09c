package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photovault/photovault/internal/config"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	cfg := &config.Config{
		ServiceName:      "photovault",
		ServiceNamespace: "photovault",
		Environment:      "test",
	}

	shutdown, err := Setup(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Spans originate from a real provider even without an exporter.
	ctx, span := StartSpan(context.Background(), "test.operation")
	assert.True(t, span.SpanContext().IsValid())
	assert.NotEmpty(t, GetTraceID(ctx))
	span.End()

	assert.NoError(t, shutdown(context.Background()))
}

func TestRecordErrorOnInactiveSpan(t *testing.T) {
	// Must not panic on a context without a span.
	RecordError(context.Background(), assert.AnError)
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{name: "empty", raw: "", want: map[string]string{}},
		{name: "single pair", raw: "authorization=Bearer abc", want: map[string]string{"authorization": "Bearer abc"}},
		{
			name: "multiple pairs with spaces",
			raw:  " a=1 , b=2 ",
			want: map[string]string{"a": "1", "b": "2"},
		},
		{name: "malformed pairs dropped", raw: "novalue,=nokey,ok=yes", want: map[string]string{"ok": "yes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseHeaders(tt.raw))
		})
	}
}
