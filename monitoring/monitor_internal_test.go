package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/randloop/stochastic"
	"github.com/sarchlab/randloop/transport"
)

var _ = Describe("Monitor", func() {
	var (
		m     *Monitor
		clock *transport.Transport
		sched *stochastic.Scheduler
		srv   *httptest.Server
	)

	BeforeEach(func() {
		clock = transport.MakeBuilder().Build("Transport")
		clock.Start()

		var err error
		sched, err = stochastic.MakeBuilder().
			WithClock(clock).
			WithRange(1, 1).
			WithIterations(4).
			Build("Random")
		Expect(err).NotTo(HaveOccurred())

		m = NewMonitor()
		m.RegisterTransport(clock)
		m.RegisterScheduler(sched)

		srv = httptest.NewServer(m.Router())
	})

	AfterEach(func() {
		srv.Close()
	})

	get := func(path string) *http.Response {
		rsp, err := http.Get(srv.URL + path)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(rsp.Body.Close)

		return rsp
	}

	decode := func(rsp *http.Response, v any) {
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(json.NewDecoder(rsp.Body).Decode(v)).To(Succeed())
	}

	It("should replace reserved port numbers with a random port", func() {
		Expect(NewMonitor().WithPortNumber(80).portNumber).To(BeZero())
		Expect(NewMonitor().WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should report the current time", func() {
		Expect(sched.Start("0")).To(Succeed())
		Expect(clock.RunFor("2")).To(Succeed())

		var rsp nowRsp
		decode(get("/api/now"), &rsp)

		Expect(rsp.Tick).To(Equal(uint64(768)))
		Expect(rsp.Seconds).To(BeNumerically("~", 2, 1e-9))
	})

	It("should list schedulers", func() {
		var names []string
		decode(get("/api/list_schedulers"), &names)

		Expect(names).To(Equal([]string{"Random"}))
	})

	It("should serialize a scheduler", func() {
		rsp := get("/api/scheduler/Random")

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})

	It("should answer 404 for unknown schedulers", func() {
		rsp := get("/api/scheduler/Nope")

		Expect(rsp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		rsp := get("/api/field/" + url.PathEscape("{not json"))

		Expect(rsp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("should track the progress of bounded schedulers", func() {
		var bars []progressSnapshot
		decode(get("/api/progress"), &bars)
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("Random"))
		Expect(bars[0].Total).To(Equal(uint64(4)))

		Expect(sched.Start("0")).To(Succeed())
		Expect(clock.RunUntil(400)).To(Succeed())

		decode(get("/api/progress"), &bars)
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Finished).To(Equal(uint64(2)))

		Expect(clock.RunFor("10")).To(Succeed())

		decode(get("/api/progress"), &bars)
		Expect(bars).To(BeEmpty())
	})

	It("should not track unbounded schedulers", func() {
		s, err := stochastic.MakeBuilder().WithClock(clock).Build("Forever")
		Expect(err).NotTo(HaveOccurred())
		m.RegisterScheduler(s)

		var bars []progressSnapshot
		decode(get("/api/progress"), &bars)

		Expect(bars).To(HaveLen(1))
	})

	It("should pause and continue the engine", func() {
		Expect(get("/api/pause").StatusCode).To(Equal(http.StatusOK))
		Expect(get("/api/continue").StatusCode).To(Equal(http.StatusOK))

		Expect(sched.Start("0")).To(Succeed())
		Expect(clock.RunFor("1")).To(Succeed())
	})

	It("should run the transport in the background", func() {
		Expect(sched.Start("0")).To(Succeed())

		rsp := get("/api/run?for=2")
		Expect(rsp.StatusCode).To(Equal(http.StatusAccepted))

		Eventually(clock.Now).Should(BeNumerically(">=", 768))
	})

	It("should reject malformed run durations", func() {
		rsp := get("/api/run?for=bogus")

		Expect(rsp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("should report process resources", func() {
		var rsp resourceRsp
		decode(get("/api/resource"), &rsp)

		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve the web page", func() {
		rsp := get("/")

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})
})
