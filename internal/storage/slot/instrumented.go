package slot

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/dkopi/internal/domain/cart"
)

const instrumentationName = "github.com/xenking/dkopi/internal/storage/slot"

// Instrumented wraps a slot with a span per call, a latency histogram and an
// error counter. A miss on Get is not counted as an error.
type Instrumented struct {
	next    cart.Slot
	backend attribute.KeyValue
	tracer  trace.Tracer

	duration metric.Float64Histogram
	errors   metric.Int64Counter
	misses   metric.Int64Counter
}

// Instrument wraps next. backend labels every span and measurement.
func Instrument(next cart.Slot, backend Backend, tp trace.TracerProvider, mp metric.MeterProvider) (*Instrumented, error) {
	meter := mp.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("dkopi.slot.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of slot operations"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "duration histogram")
	}
	errCounter, err := meter.Int64Counter("dkopi.slot.errors",
		metric.WithDescription("Failed slot operations"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "errors counter")
	}
	misses, err := meter.Int64Counter("dkopi.slot.misses",
		metric.WithDescription("Reads of absent slots"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "misses counter")
	}

	return &Instrumented{
		next:     next,
		backend:  attribute.String("slot.backend", string(backend)),
		tracer:   tp.Tracer(instrumentationName),
		duration: duration,
		errors:   errCounter,
		misses:   misses,
	}, nil
}

// Unwrap returns the wrapped slot.
func (i *Instrumented) Unwrap() cart.Slot {
	return i.next
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := i.observe(ctx, "Get", func(ctx context.Context) (err error) {
		data, err = i.next.Get(ctx, key)
		return err
	})
	return data, err
}

func (i *Instrumented) Set(ctx context.Context, key string, value []byte) error {
	return i.observe(ctx, "Set", func(ctx context.Context) error {
		return i.next.Set(ctx, key, value)
	})
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	return i.observe(ctx, "Delete", func(ctx context.Context) error {
		return i.next.Delete(ctx, key)
	})
}

// Ping forwards to the wrapped slot when it is a Pinger.
func (i *Instrumented) Ping(ctx context.Context) error {
	if p, ok := i.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (i *Instrumented) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attrs := metric.WithAttributes(i.backend, attribute.String("slot.op", op))

	ctx, span := i.tracer.Start(ctx, "slot."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(i.backend),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	i.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	switch {
	case err == nil:
	case errors.Is(err, cart.ErrSlotEmpty):
		i.misses.Add(ctx, 1, attrs)
		span.SetAttributes(attribute.Bool("slot.miss", true))
	default:
		i.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
