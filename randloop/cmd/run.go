package cmd

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/sarchlab/randloop/datarecording"
	"github.com/sarchlab/randloop/monitoring"
	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/stochastic"
	"github.com/sarchlab/randloop/timeunit"
	"github.com/sarchlab/randloop/tracing"
	"github.com/sarchlab/randloop/transport"
	"github.com/spf13/cobra"
)

type runOptions struct {
	bpm         float64
	ppq         int
	min         float64
	max         float64
	dist        string
	iterations  uint64
	duration    string
	seed        int64
	skew        float64
	mute        bool
	quiet       bool
	traceEvents bool
	record      string
	monitor     bool
	port        int
	openBrowser bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a randomized loop for a while.",
		Long: "`run` starts a randomized loop at time zero and advances the " +
			"transport by --duration. Every fire is logged to stderr unless " +
			"--quiet is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.bpm, "bpm", timeunit.DefaultBPM, "Tempo in beats per minute.")
	f.IntVar(&opts.ppq, "ppq", timeunit.DefaultPPQ, "Ticks per quarter note.")
	f.Float64Var(&opts.min, "min", 1, "Shortest interval in seconds.")
	f.Float64Var(&opts.max, "max", 2, "Longest interval in seconds.")
	f.StringVar(&opts.dist, "dist", string(stochastic.Uniform),
		"Interval distribution: uniform or gaussian.")
	f.Uint64Var(&opts.iterations, "iterations", 0,
		"Number of fires; 0 fires until the duration ends.")
	f.StringVar(&opts.duration, "duration", "8m",
		"How long to run, in transport time notation (e.g. 30, 8m, 1:2:0).")
	f.Int64Var(&opts.seed, "seed", 0, "Random seed; 0 seeds from the wall clock.")
	f.Float64Var(&opts.skew, "skew", 1, "Exponent applied to gaussian samples.")
	f.BoolVar(&opts.mute, "mute", false, "Consume iterations without firing.")
	f.BoolVar(&opts.quiet, "quiet", false, "Do not log fires.")
	f.BoolVar(&opts.traceEvents, "trace-events", false,
		"Log every event dispatched by the engine.")
	f.StringVar(&opts.record, "record", "",
		"Record fires into <path>.sqlite3.")
	f.BoolVar(&opts.monitor, "monitor", false,
		"Serve the monitor and wait for an interrupt after the run.")
	f.IntVar(&opts.port, "port", 0, "Monitor port; 0 picks a free port.")
	f.BoolVar(&opts.openBrowser, "open-browser", false,
		"Open the monitor in the default browser.")

	return cmd
}

func run(out, logOut io.Writer, opts *runOptions) error {
	dist, err := stochastic.ParseDistribution(opts.dist)
	if err != nil {
		return err
	}

	if opts.bpm <= 0 || opts.ppq <= 0 {
		return fmt.Errorf("bpm and ppq must be positive, got %v and %d",
			opts.bpm, opts.ppq)
	}

	clock := transport.MakeBuilder().
		WithBPM(opts.bpm).
		WithPPQ(opts.ppq).
		Build("Transport")

	logger := log.New(logOut, "", 0)
	if opts.traceEvents {
		clock.Engine().AcceptHook(timing.NewEventLogger(logger))
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	iterations := stochastic.Unbounded
	if opts.iterations > 0 {
		iterations = opts.iterations
	}

	fires := 0
	sched, err := stochastic.MakeBuilder().
		WithClock(clock).
		WithRand(rand.New(rand.NewSource(seed))).
		WithCallback(func(timing.VTimeInTick) { fires++ }).
		WithRange(opts.min, opts.max).
		WithDistribution(dist).
		WithIterations(iterations).
		WithSkew(opts.skew).
		WithMute(opts.mute).
		Build("Random")
	if err != nil {
		return err
	}

	if !opts.quiet {
		tracing.Attach(sched, tracing.NewFireLogger(logger, clock))
	}

	var recorder *tracing.FireRecorder
	if opts.record != "" {
		recorder = tracing.NewFireRecorder(
			datarecording.New(opts.record), clock, "fires")
		tracing.Attach(sched, recorder)
	}

	var monitor *monitoring.Monitor
	if opts.monitor {
		monitor = monitoring.NewMonitor().
			WithPortNumber(opts.port).
			WithBrowser(opts.openBrowser)
		monitor.RegisterTransport(clock)
		monitor.RegisterScheduler(sched)
		monitor.StartServer()
	}

	clock.Start()

	if err := sched.Start("0"); err != nil {
		return err
	}

	if err := clock.RunFor(timeunit.Time(opts.duration)); err != nil {
		return err
	}

	if recorder != nil {
		recorder.Flush()
	}

	fmt.Fprintf(out, "%d fires in %.3f s (%d ticks at %v BPM, seed %d)\n",
		fires, clock.Seconds(), clock.Now(), opts.bpm, seed)

	if monitor != nil {
		waitForInterrupt(logOut)
	}

	return nil
}

func waitForInterrupt(logOut io.Writer) {
	fmt.Fprintln(logOut, "Run finished. Press Ctrl+C to stop the monitor.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}
