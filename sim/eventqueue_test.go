package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("eventQueue", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *eventQueue
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = newEventQueue()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	eventAt := func(t VTimeInCycle) *MockEvent {
		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(t).AnyTimes()

		return evt
	}

	It("should pop in cycle order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			queue.push(eventAt(VTimeInCycle(rand.Uint64() % 50)))
		}

		Expect(queue.len()).To(Equal(numEvents))

		now := VTimeInCycle(0)
		for i := 0; i < numEvents; i++ {
			evt := queue.pop()
			Expect(evt.Time()).To(BeNumerically(">=", now))
			now = evt.Time()
		}

		_, ok := queue.nextCycle()
		Expect(ok).To(BeFalse())
	})

	It("should keep the push order within a cycle", func() {
		a, b, c := eventAt(5), eventAt(5), eventAt(3)
		queue.push(a)
		queue.push(b)
		queue.push(c)

		t, ok := queue.nextCycle()
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(VTimeInCycle(3)))

		Expect(queue.pop()).To(BeIdenticalTo(c))
		Expect(queue.pop()).To(BeIdenticalTo(a))

		d := eventAt(5)
		queue.push(d)

		Expect(queue.pop()).To(BeIdenticalTo(b))
		Expect(queue.pop()).To(BeIdenticalTo(d))
		Expect(queue.len()).To(BeZero())
	})
})
