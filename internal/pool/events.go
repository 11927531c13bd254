package pool

import (
	"context"

	"github.com/google/uuid"

	"flexPool/internal/model"
)

// EventSink receives the events of committed transactions in order.
type EventSink interface {
	PutEvents(ctx context.Context, events []model.EventRecord) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, events []model.EventRecord) error

func (f SinkFunc) PutEvents(ctx context.Context, events []model.EventRecord) error {
	return f(ctx, events)
}

func (p *Pool) newRecord(now uint64, name string, payload interface{}) model.EventRecord {
	p.st.seq++
	return model.EventRecord{
		ID:        uuid.NewString(),
		Pool:      p.id.Hex(),
		Seq:       p.st.seq,
		Timestamp: now,
		EventName: name,
		Decoded:   payload,
	}
}

func (p *Pool) publish(ctx context.Context, records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, sink := range p.sinks {
		if err := sink.PutEvents(ctx, records); err != nil {
			return ErrPublish.Wrapf("%v", err)
		}
	}
	for _, r := range records {
		p.metrics.ObserveEvent(p.id.Hex(), r.EventName)
	}
	return nil
}
