package trigger

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/timeline"
	"github.com/sarchlab/randloop/transport"
)

type constSource float64

func (s constSource) Float64() float64 { return float64(s) }

var _ = Describe("Trigger", func() {
	var (
		clock *transport.Transport
		fired []timing.VTimeInTick
		cb    transport.Callback
	)

	BeforeEach(func() {
		clock = transport.MakeBuilder().Build("Transport")
		clock.Start()
		fired = nil
		cb = func(now timing.VTimeInTick) error {
			fired = append(fired, now)
			return nil
		}
	})

	It("should fire once at its start time", func() {
		t, err := MakeBuilder().WithClock(clock).WithCallback(cb).Build("T")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Start("4n")).To(Succeed())
		Expect(t.State()).To(Equal(timeline.Stopped))

		Expect(clock.RunFor("2m")).To(Succeed())

		Expect(fired).To(Equal([]timing.VTimeInTick{192}))
		Expect(t.State()).To(Equal(timeline.Started))
	})

	It("should not fire if stopped at its start time", func() {
		t, err := MakeBuilder().WithClock(clock).WithCallback(cb).Build("T")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Start("0")).To(Succeed())
		Expect(t.Stop("0")).To(Succeed())
		Expect(clock.RunFor("1m")).To(Succeed())

		Expect(fired).To(BeEmpty())
		Expect(t.State()).To(Equal(timeline.Stopped))
	})

	It("should loop over its region until stopped", func() {
		t, err := MakeBuilder().
			WithClock(clock).
			WithCallback(cb).
			WithLoop(true).
			WithLoopEnd("4n").
			Build("T")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Start("0")).To(Succeed())
		Expect(t.Stop("1m")).To(Succeed())
		Expect(clock.RunFor("2m")).To(Succeed())

		Expect(fired).To(Equal([]timing.VTimeInTick{0, 192, 384, 576}))
	})

	It("should scale the loop period by the playback rate", func() {
		t, err := MakeBuilder().
			WithClock(clock).
			WithCallback(cb).
			WithLoop(true).
			WithLoopEnd("4n").
			WithPlaybackRate(2).
			Build("T")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Start("0")).To(Succeed())
		Expect(t.Stop("4n")).To(Succeed())
		Expect(clock.RunFor("1m")).To(Succeed())

		Expect(fired).To(Equal([]timing.VTimeInTick{0, 96}))
	})

	It("should skip callbacks when muted or improbable", func() {
		t, err := MakeBuilder().
			WithClock(clock).
			WithCallback(cb).
			WithProbability(0.5).
			WithRand(constSource(0.9)).
			Build("T")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Start("0")).To(Succeed())
		Expect(clock.RunFor("1m")).To(Succeed())
		Expect(fired).To(BeEmpty())

		t.SetMute(true)
		Expect(t.SetProbability(1)).To(Succeed())
		Expect(t.Stop("")).To(Succeed())
		Expect(t.Start("")).To(Succeed())
		Expect(clock.RunFor("1m")).To(Succeed())
		Expect(fired).To(BeEmpty())
		Expect(t.Mute()).To(BeTrue())
	})

	It("should shift the callback time when humanized", func() {
		t, err := MakeBuilder().
			WithClock(clock).
			WithCallback(cb).
			WithHumanize("10i").
			WithRand(constSource(1)).
			Build("T")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Start("4n")).To(Succeed())
		Expect(clock.RunFor("1m")).To(Succeed())

		Expect(fired).To(Equal([]timing.VTimeInTick{202}))
	})

	It("should drop pending fires when disposed", func() {
		t, err := MakeBuilder().WithClock(clock).WithCallback(cb).Build("T")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Start("4n")).To(Succeed())
		Expect(clock.Pending()).To(Equal(1))

		t.Dispose()

		Expect(clock.Pending()).To(BeZero())
		Expect(clock.RunFor("1m")).To(Succeed())
		Expect(fired).To(BeEmpty())
		Expect(t.Start("")).To(MatchError(ErrDisposed))
	})

	It("should cancel future transitions", func() {
		t, err := MakeBuilder().WithClock(clock).WithCallback(cb).Build("T")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Start("4n")).To(Succeed())
		Expect(t.Cancel("0")).To(Succeed())
		Expect(clock.RunFor("1m")).To(Succeed())

		Expect(fired).To(BeEmpty())
		Expect(t.State()).To(Equal(timeline.Stopped))
	})

	It("should fire once when restarted at the tick it stopped", func() {
		t, err := MakeBuilder().WithClock(clock).WithCallback(cb).Build("T")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Start("0")).To(Succeed())
		Expect(t.Stop("0")).To(Succeed())
		Expect(t.Start("0")).To(Succeed())
		Expect(clock.Pending()).To(Equal(1))

		Expect(clock.RunFor("1m")).To(Succeed())

		Expect(fired).To(Equal([]timing.VTimeInTick{0}))
	})

	It("should withdraw a future start when stopped before it", func() {
		t, err := MakeBuilder().WithClock(clock).WithCallback(cb).Build("T")
		Expect(err).NotTo(HaveOccurred())

		Expect(t.Start("1")).To(Succeed())
		Expect(t.Stop("")).To(Succeed())
		Expect(clock.Pending()).To(BeZero())
		Expect(t.StateAt(384)).To(Equal(timeline.Stopped))

		Expect(t.Start("2")).To(Succeed())
		Expect(clock.RunFor("5")).To(Succeed())

		Expect(fired).To(Equal([]timing.VTimeInTick{768}))
		Expect(t.State()).To(Equal(timeline.Started))
	})

	It("should reject invalid configuration", func() {
		_, err := MakeBuilder().WithClock(clock).WithPlaybackRate(0).Build("T")
		Expect(err).To(HaveOccurred())

		_, err = MakeBuilder().WithClock(clock).WithProbability(1.5).Build("T")
		Expect(err).To(HaveOccurred())

		_, err = MakeBuilder().WithClock(clock).WithLoopEnd("bogus").Build("T")
		Expect(err).To(HaveOccurred())
	})

	It("should keep its forwarded settings", func() {
		t, err := MakeBuilder().
			WithClock(clock).
			WithRand(rand.New(rand.NewSource(1))).
			WithLoopStart("4n").
			WithLoopEnd("1m").
			WithStartOffset("8n").
			WithPlaybackRate(1.5).
			Build("T")
		Expect(err).NotTo(HaveOccurred())

		start, end := t.LoopRegion()
		Expect(start).To(Equal(timing.VTimeInTick(192)))
		Expect(end).To(Equal(timing.VTimeInTick(768)))
		Expect(t.StartOffset()).To(Equal(timing.VTimeInTick(96)))
		Expect(t.PlaybackRate()).To(Equal(1.5))
		Expect(t.Loop()).To(BeFalse())
		Expect(t.Name()).To(Equal("T"))
	})
})
