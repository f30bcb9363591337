package events

import (
	"context"
	"encoding/json"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", func() {
	It("writes events in order with their kind as type", func() {
		w := newTestWriter()
		p := NewEventProducer(w, WithOutputTopic("screening.test"))

		Expect(p.Write(context.TODO(), RunStartedKind, []byte(`{"n":1}`))).To(Succeed())
		Expect(p.Write(context.TODO(), RunFinishedKind, []byte(`{"n":2}`))).To(Succeed())

		Eventually(w.Count).Should(Equal(2))
		msgs := w.Events()
		Expect(msgs[0].Type()).To(Equal(RunStartedKind))
		Expect(msgs[1].Type()).To(Equal(RunFinishedKind))
		Expect(msgs[0].Source()).To(Equal(defaultSource))
		Expect(w.topics).To(HaveEach("screening.test"))

		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})

	It("publishes json payloads", func() {
		w := newTestWriter()
		p := NewEventProducer(w)

		runID := uuid.New()
		Expect(p.Publish(context.TODO(), RunFinishedKind, RunFinishedEvent{RunID: runID, Status: "completed", Total: 3, Processed: 3})).To(Succeed())
		Eventually(w.Count).Should(Equal(1))

		var got RunFinishedEvent
		Expect(json.Unmarshal(w.Events()[0].Data(), &got)).To(Succeed())
		Expect(got.RunID).To(Equal(runID))
		Expect(got.Processed).To(Equal(3))

		Expect(p.Close()).To(Succeed())
	})

	It("drains pending events on close", func() {
		w := newTestWriter()
		p := NewEventProducer(w)
		for i := 0; i < 50; i++ {
			Expect(p.Write(context.TODO(), RunStartedKind, []byte("{}"))).To(Succeed())
		}
		Expect(p.Close()).To(Succeed())
		Expect(w.Count()).To(Equal(50))
	})
})

type testwriter struct {
	mu       sync.Mutex
	messages []cloudevents.Event
	topics   []string
	closed   bool
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(_ context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *testwriter) Events() []cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]cloudevents.Event(nil), t.messages...)
}

func (t *testwriter) Close(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
