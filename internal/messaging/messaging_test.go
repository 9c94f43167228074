package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func withTracing(t *testing.T) {
	t.Helper()
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func TestProducer_Publish(t *testing.T) {
	withTracing(t)
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: OrderPlacedTopic}

	err := p.Publish(context.Background(), "ORD-1", map[string]string{"order_number": "ORD-1"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "ORD-1", string(msg.Key))
	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "ORD-1", body["order_number"])

	carrier := carrierFor(&msg)
	assert.Equal(t, "application/json", carrier.Get(headerContentType))
	assert.NotEmpty(t, carrier.Get("traceparent"))
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("no brokers")}, topic: OrderPlacedTopic}

	err := p.Publish(context.Background(), "k", struct{}{})
	assert.ErrorContains(t, err, "write to order.placed")
}

func TestConsumer_PropagatesTraceAndCommits(t *testing.T) {
	withTracing(t)

	w := &fakeWriter{}
	p := &Producer{writer: w, topic: OrderPlacedTopic}
	ctx, span := otel.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, p.Publish(ctx, "ORD-1", "hello"))
	span.End()

	w.msgs[0].Offset = 7
	r := &fakeReader{msgs: w.msgs}
	c := &Consumer{reader: r, topic: OrderPlacedTopic, groupID: "g", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	var gotTrace trace.TraceID
	err := c.Consume(context.Background(), func(ctx context.Context, payload []byte) error {
		gotTrace = trace.SpanContextFromContext(ctx).TraceID()
		assert.JSONEq(t, `"hello"`, string(payload))
		return nil
	})

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, span.SpanContext().TraceID(), gotTrace)
	assert.Equal(t, []int64{7}, r.committed)
}

func TestConsumer_ErrorHandling(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("permanent errors are skipped", func(t *testing.T) {
		r := &fakeReader{msgs: []kafka.Message{{Offset: 1}, {Offset: 2}}}
		c := &Consumer{reader: r, topic: "t", logger: logger}

		calls := 0
		err := c.Consume(context.Background(), func(context.Context, []byte) error {
			calls++
			return Permanent(errors.New("bad payload"))
		})

		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 2, calls)
		assert.Equal(t, []int64{1, 2}, r.committed)
	})

	t.Run("retryable errors stop without commit", func(t *testing.T) {
		r := &fakeReader{msgs: []kafka.Message{{Offset: 1}, {Offset: 2}}}
		c := &Consumer{reader: r, topic: "t", logger: logger}

		boom := errors.New("mailer down")
		err := c.Consume(context.Background(), func(context.Context, []byte) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.Empty(t, r.committed)
	})
}

func TestConsumer_RejectsForeignContentType(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{
		Offset:  3,
		Value:   []byte("<order/>"),
		Headers: []kafka.Header{{Key: "Content-Type", Value: []byte("application/xml")}},
	}}}
	c := &Consumer{reader: r, topic: "t", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	called := false
	err := c.Consume(context.Background(), func(context.Context, []byte) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, called)
	assert.Equal(t, []int64{3}, r.committed)
}

func TestHeaderCarrier(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "Traceparent", Value: []byte("a")}}}
	c := carrierFor(&msg)

	assert.Equal(t, "a", c.Get("traceparent"))
	c.Set("traceparent", "b")
	c.Set("baggage", "k=v")

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "b", string(msg.Headers[0].Value))
	assert.Equal(t, []string{"Traceparent", "baggage"}, c.Keys())
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))

	cause := errors.New("cause")
	err := Permanent(cause)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsPermanent(cause))
}
