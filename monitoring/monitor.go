// Package monitoring turns a running transport into an HTTP server that can
// be inspected and controlled from a browser.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/randloop/monitoring/web"
	"github.com/sarchlab/randloop/sim/hooking"
	"github.com/sarchlab/randloop/sim/id"
	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/stochastic"
	"github.com/sarchlab/randloop/timeline"
	"github.com/sarchlab/randloop/timeunit"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Clock is the transport being monitored.
type Clock interface {
	Now() timing.VTimeInTick
	Seconds() float64
	Engine() timing.Engine
	RunFor(d timeunit.Time) error
}

// Scheduler is a scheduler that can be listed and inspected.
type Scheduler interface {
	hooking.Hookable
	Name() string
	Iterations() uint64
	Range() stochastic.Range
	Distribution() stochastic.Distribution
	Mute() bool
	IsLooping() bool
	State() timeline.State
}

// schedulerView is the serialized form of a Scheduler.
type schedulerView struct {
	Name         string
	State        string
	Looping      bool
	Mute         bool
	Distribution string
	RangeMin     float64
	RangeMax     float64
	Unbounded    bool
	Iterations   uint64
}

func viewOf(s Scheduler) *schedulerView {
	r := s.Range()
	n := s.Iterations()

	return &schedulerView{
		Name:         s.Name(),
		State:        s.State().String(),
		Looping:      s.IsLooping(),
		Mute:         s.Mute(),
		Distribution: string(s.Distribution()),
		RangeMin:     r.Min,
		RangeMax:     r.Max,
		Unbounded:    n == stochastic.Unbounded,
		Iterations:   n,
	}
}

// Monitor can turn a randomized loop into a server and allows external
// monitoring and controlling of the transport.
type Monitor struct {
	clock       Clock
	portNumber  int
	openBrowser bool

	lock       sync.Mutex
	schedulers []Scheduler

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in the default browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterTransport registers the transport that is monitored.
func (m *Monitor) RegisterTransport(c Clock) {
	m.clock = c
}

// RegisterScheduler registers a scheduler to be monitored. Schedulers with an
// iteration limit get a progress bar.
func (m *Monitor) RegisterScheduler(s Scheduler) {
	m.lock.Lock()
	m.schedulers = append(m.schedulers, s)
	m.lock.Unlock()

	if total := s.Iterations(); total != stochastic.Unbounded {
		bar := m.CreateProgressBar(s.Name(), total)
		s.AcceptHook(&progressHook{monitor: m, bar: bar})
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        id.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/list_schedulers", m.listSchedulers)
	r.HandleFunc("/api/scheduler/{name}", m.listSchedulerDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.Assets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring randloop with %s\n", url)

	router := m.Router()
	go func() {
		err := http.Serve(listener, router)
		dieOnErr(err)
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			log.Printf("monitoring: cannot open browser: %v", err)
		}
	}

	return url
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.clock.Engine().Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.clock.Engine().Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

type nowRsp struct {
	Tick    uint64  `json:"tick"`
	Seconds float64 `json:"seconds"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	rsp := nowRsp{
		Tick:    uint64(m.clock.Now()),
		Seconds: m.clock.Seconds(),
	}

	writeJSON(w, rsp)
}

// run advances the transport in the background by the duration given in the
// "for" query parameter, one measure by default.
func (m *Monitor) run(w http.ResponseWriter, r *http.Request) {
	d := timeunit.Time(r.URL.Query().Get("for"))
	if d == timeunit.Now {
		d = "1m"
	}

	if _, err := timeunit.Parse(d); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	go func() {
		if err := m.clock.RunFor(d); err != nil {
			log.Printf("monitoring: run for %s: %v", d, err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (m *Monitor) listSchedulers(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	names := make([]string, 0, len(m.schedulers))
	for _, s := range m.schedulers {
		names = append(names, s.Name())
	}
	m.lock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) listSchedulerDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s := m.findSchedulerOr404(w, name)
	if s == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(viewOf(s))
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	SchedulerName string `json:"scheduler_name,omitempty"`
	FieldName     string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	s := m.findSchedulerOr404(w, req.SchedulerName)
	if s == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(viewOf(s))
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) findSchedulerOr404(
	w http.ResponseWriter,
	name string,
) Scheduler {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, s := range m.schedulers {
		if s.Name() == name {
			return s
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Scheduler not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}

// progressHook advances the progress bar of a scheduler on every fire and
// retires it when the scheduler runs out of iterations.
type progressHook struct {
	monitor *Monitor
	bar     *ProgressBar
}

func (h *progressHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case stochastic.HookPosAfterFire:
		h.bar.IncrementFinished(1)
	case stochastic.HookPosExhausted:
		h.monitor.CompleteProgressBar(h.bar)
	}
}
