package analytics

import "context"

// Breaker guards calls to an external service. *resilience.CircuitBreaker implements it.
type Breaker interface {
	Execute(ctx context.Context, operation func(context.Context) error) error
}

type guardedSink struct {
	Sink
	breaker Breaker
}

// Guard routes every send of sink through breaker. While the breaker is open,
// events for that sink are dropped with the breaker's error.
func Guard(sink Sink, breaker Breaker) Sink {
	return guardedSink{Sink: sink, breaker: breaker}
}

func (g guardedSink) Send(ctx context.Context, event Event) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.Sink.Send(ctx, event)
	})
}
