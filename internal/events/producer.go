package events

import (
	"context"
	"encoding/json"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	RunStartedKind   string = "screening.events.run.started"
	RunFinishedKind  string = "screening.events.run.finished"
	StageChangedKind string = "screening.events.resume.stage"
	defaultTopic     string = "screening.events"
	defaultSource    string = "screening.engine"
)

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// EventProducer queues events and hands them to the Writer from a single
// goroutine, so callers never wait on the writer.
type EventProducer struct {
	buffer  *buffer
	wakeCh  chan struct{}
	doneCh  chan struct{}
	stopped chan struct{}
	writer  Writer
	topic   string
	source  string
	log     *zap.SugaredLogger
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		buffer:  newBuffer(),
		wakeCh:  make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
		stopped: make(chan struct{}),
		writer:  w,
		topic:   defaultTopic,
		source:  defaultSource,
		log:     zap.S().Named("event_producer"),
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

// Publish encodes payload as json and queues it under kind.
func (ep *EventProducer) Publish(ctx context.Context, kind string, payload any) error {
	d, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return ep.Write(ctx, kind, d)
}

func (ep *EventProducer) Write(_ context.Context, kind string, data []byte) error {
	ep.buffer.PushBack(&message{Kind: kind, Data: data})

	select {
	case ep.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// Close stops the producer after the queued events are written and closes
// the writer.
func (ep *EventProducer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	close(ep.doneCh)

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		select {
		case <-ep.stopped:
		case <-ctx.Done():
			return ctx.Err()
		}
		return ep.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		ep.log.Errorf("event producer closed with error: %s", err)
		return err
	}

	ep.log.Info("event producer closed")
	return nil
}

func (ep *EventProducer) run() {
	defer close(ep.stopped)

	for {
		msg := ep.buffer.Pop()
		if msg == nil {
			select {
			case <-ep.wakeCh:
				continue
			case <-ep.doneCh:
				ep.drain()
				return
			}
		}
		ep.send(msg)
	}
}

func (ep *EventProducer) drain() {
	for msg := ep.buffer.Pop(); msg != nil; msg = ep.buffer.Pop() {
		ep.send(msg)
	}
}

func (ep *EventProducer) send(msg *message) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(ep.source)
	e.SetType(msg.Kind)
	e.SetTime(time.Now())
	_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.Data)

	if err := ep.writer.Write(context.TODO(), ep.topic, e); err != nil {
		ep.log.Errorw("failed to send message", "error", err, "event_type", msg.Kind)
	}
}
