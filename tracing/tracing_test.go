package tracing

import (
	"bytes"
	"log"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/randloop/stochastic"
	"github.com/sarchlab/randloop/transport"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Fire hooks", func() {
	var (
		mockCtrl *gomock.Controller
		clock    *transport.Transport
		sched    *stochastic.Scheduler
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clock = transport.MakeBuilder().Build("Transport")
		clock.Start()

		var err error
		sched, err = stochastic.MakeBuilder().
			WithClock(clock).
			WithRange(1, 1).
			WithIterations(2).
			Build("S")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should log fires and exhaustion", func() {
		buf := new(bytes.Buffer)
		Attach(sched, NewFireLogger(log.New(buf, "", 0), clock))

		Expect(sched.Start("0")).To(Succeed())
		Expect(clock.RunFor("5")).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(Equal([]string{
			"0.000000, 0, S, fire, next in 1.000000",
			"1.000000, 384, S, fire",
			"1.000000, 384, S, exhausted",
		}))
	})

	It("should record fires and exhaustion", func() {
		backend := NewMockDataRecorder(mockCtrl)
		backend.EXPECT().CreateTable("fires", FireEntry{})

		var rows []FireEntry
		backend.EXPECT().
			InsertData("fires", gomock.Any()).
			Do(func(_ string, entry any) {
				rows = append(rows, entry.(FireEntry))
			}).
			Times(3)

		Attach(sched, NewFireRecorder(backend, clock, ""))

		Expect(sched.Start("0")).To(Succeed())
		Expect(clock.RunFor("5")).To(Succeed())

		Expect(rows).To(Equal([]FireEntry{
			{Scheduler: "S", Event: EventFire, Tick: 0, Seconds: 0, NextDelay: 1, Remaining: 1},
			{Scheduler: "S", Event: EventFire, Tick: 384, Seconds: 1, Remaining: 0},
			{Scheduler: "S", Event: EventExhausted, Tick: 384, Seconds: 1, Remaining: 0},
		}))
	})

	It("should record unbounded schedulers with a remaining count of -1", func() {
		backend := NewMockDataRecorder(mockCtrl)
		backend.EXPECT().CreateTable("runs", FireEntry{})

		var rows []FireEntry
		backend.EXPECT().
			InsertData("runs", gomock.Any()).
			Do(func(_ string, entry any) {
				rows = append(rows, entry.(FireEntry))
			}).
			AnyTimes()

		sched.SetIterations(stochastic.Unbounded)
		r := NewFireRecorder(backend, clock, "runs")
		Expect(r.TableName()).To(Equal("runs"))
		Attach(sched, r)

		Expect(sched.Start("0")).To(Succeed())
		Expect(clock.RunFor("2.5")).To(Succeed())

		Expect(rows).To(HaveLen(3))
		for _, row := range rows {
			Expect(row.Remaining).To(Equal(int64(-1)))
		}
	})

	It("should refuse to attach the same hook twice", func() {
		h := NewFireLogger(log.New(new(bytes.Buffer), "", 0), clock)
		Attach(sched, h)

		Expect(func() { Attach(sched, h) }).To(Panic())
	})
})
