package transport

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/timeline"
)

var _ = Describe("Transport", func() {
	var (
		t     *Transport
		fired []timing.VTimeInTick
		rec   Callback
	)

	BeforeEach(func() {
		t = MakeBuilder().WithBPM(120).WithPPQ(192).Build("Transport")
		fired = nil
		rec = func(now timing.VTimeInTick) error {
			fired = append(fired, now)
			return nil
		}
	})

	It("should start stopped and refuse to advance", func() {
		Expect(t.State()).To(Equal(timeline.Stopped))
		Expect(t.RunUntil(10)).To(MatchError(ErrNotRunning))
	})

	It("should run callbacks at absolute and relative times", func() {
		_, err := t.Schedule(rec, "4n")
		Expect(err).NotTo(HaveOccurred())
		_, err = t.Schedule(rec, "+96i")
		Expect(err).NotTo(HaveOccurred())

		t.Start()
		Expect(t.RunFor("1m")).To(Succeed())

		Expect(fired).To(Equal([]timing.VTimeInTick{96, 192}))
		Expect(t.Now()).To(Equal(timing.VTimeInTick(768)))
		Expect(t.Seconds()).To(BeNumerically("~", 2.0, 1e-9))
		Expect(t.Pending()).To(BeZero())
	})

	It("should place a tiny positive offset at least one tick later", func() {
		tick, err := t.Resolve("+0.0000001")
		Expect(err).NotTo(HaveOccurred())
		Expect(tick).To(Equal(timing.VTimeInTick(1)))

		tick, err = t.Resolve("")
		Expect(err).NotTo(HaveOccurred())
		Expect(tick).To(Equal(timing.VTimeInTick(0)))
	})

	It("should reject absolute times in the past", func() {
		t.Start()
		Expect(t.RunUntil(500)).To(Succeed())

		_, err := t.Schedule(rec, "4n")
		Expect(errors.Is(err, ErrPastTime)).To(BeTrue())

		_, err = t.ScheduleAt(rec, 499)
		Expect(errors.Is(err, ErrPastTime)).To(BeTrue())
	})

	It("should let callbacks schedule more callbacks", func() {
		var chain Callback
		chain = func(now timing.VTimeInTick) error {
			fired = append(fired, now)
			if len(fired) < 4 {
				_, err := t.Schedule(chain, "+8n")
				return err
			}
			return nil
		}

		_, err := t.Schedule(chain, "0")
		Expect(err).NotTo(HaveOccurred())

		t.Start()
		Expect(t.RunFor("2m")).To(Succeed())

		Expect(fired).To(Equal([]timing.VTimeInTick{0, 96, 192, 288}))
	})

	It("should drop cleared callbacks", func() {
		h, err := t.Schedule(rec, "8n")
		Expect(err).NotTo(HaveOccurred())
		_, err = t.Schedule(rec, "4n")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Clear(h)).To(BeTrue())
		Expect(t.Clear(h)).To(BeFalse())

		t.Start()
		Expect(t.RunFor("1m")).To(Succeed())

		Expect(fired).To(Equal([]timing.VTimeInTick{192}))
	})

	It("should surface callback errors from the run", func() {
		boom := errors.New("boom")
		_, err := t.Schedule(func(timing.VTimeInTick) error { return boom }, "4n")
		Expect(err).NotTo(HaveOccurred())

		t.Start()
		Expect(t.RunFor("1m")).To(MatchError(boom))
	})

	It("should track start, pause, and stop", func() {
		t.Start()
		Expect(t.State()).To(Equal(timeline.Started))

		Expect(t.RunFor("4n")).To(Succeed())
		t.Pause()
		Expect(t.State()).To(Equal(timeline.Paused))
		Expect(t.RunFor("4n")).To(MatchError(ErrNotRunning))

		t.Start()
		Expect(t.RunFor("4n")).To(Succeed())
		t.Stop()
		Expect(t.State()).To(Equal(timeline.Stopped))
		Expect(t.Now()).To(Equal(timing.VTimeInTick(384)))
	})

	It("should convert using the current tempo", func() {
		Expect(t.SetBPM(60)).To(Succeed())

		ticks, err := t.ToTicks("1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ticks).To(Equal(timing.VTimeInTick(192)))

		sec, err := t.ToSeconds("4n")
		Expect(err).NotTo(HaveOccurred())
		Expect(sec).To(BeNumerically("~", 1.0, 1e-9))

		Expect(t.SetBPM(0)).NotTo(Succeed())
	})

	It("should panic on an invalid resolution", func() {
		Expect(func() { MakeBuilder().WithPPQ(0).Build("Bad") }).To(Panic())
	})
})
