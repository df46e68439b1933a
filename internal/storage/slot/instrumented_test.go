package slot

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/dkopi/internal/domain/cart"
)

// --- Mock implementations ---

type failingSlot struct {
	err error
}

func (f failingSlot) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingSlot) Set(context.Context, string, []byte) error { return f.err }
func (f failingSlot) Delete(context.Context, string) error { return f.err }

// --- Tests ---

func newInstrumented(t *testing.T, next cart.Slot) *Instrumented {
	t.Helper()
	i, err := Instrument(next, BackendMemory, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	return i
}

func TestInstrumented(t *testing.T) {
	testSlotContract(t, newInstrumented(t, NewMemory()))
}

func TestInstrumented_PropagatesErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	i := newInstrumented(t, failingSlot{err: boom})

	_, err := i.Get(ctx, "k")
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, i.Set(ctx, "k", nil), boom)
	require.ErrorIs(t, i.Delete(ctx, "k"), boom)
}

func TestInstrumented_PingWithoutPinger(t *testing.T) {
	i := newInstrumented(t, NewMemory())
	assert.NoError(t, i.Ping(context.Background()))
	_, ok := i.Unwrap().(*Memory)
	assert.True(t, ok)
}
