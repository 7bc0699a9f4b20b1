// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Command ccsim runs a discrete-event simulation of a single bottleneck
// link shared by one or more flows, each driven by the Dumb or Davis
// congestion controller, and reports per-flow metrics as CSV on standard
// output (spec section 6).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"golang.org/x/time/rate"

	"github.com/heistp/ccphase/cca"
	"github.com/heistp/ccphase/internal/simlog"
	"github.com/heistp/ccphase/report"
	"github.com/heistp/ccphase/sim"
	"github.com/heistp/ccphase/units"
)

func main() {
	log.SetFlags(0)

	var (
		algo        = flag.String("algo", "davis", "congestion control algorithm: davis or dumb")
		flows       = flag.Int("flows", 1, "number of competing flows")
		runtime_    = flag.Duration("runtime", 60*time.Second, "simulated run duration")
		baseRTT     = flag.Duration("rtt", 30*time.Millisecond, "base RTT (propagation delay)")
		maxBW       = flag.String("rate", "10Gbps", "bottleneck service rate, e.g. 10Gbps, 100Mbps")
		mss         = flag.Int("mss", 512, "maximum segment size, in bytes")
		lossProb    = flag.Float64("loss", 0, "per-packet loss probability in [0,1]")
		seed        = flag.Int64("seed", 1, "random seed for the loss draw")
		metricsAddr = flag.String("metrics", "", "if set, serve Prometheus metrics on this address, e.g. :9100")
		quiet       = flag.Bool("quiet", false, "suppress the stderr progress reporter")
		trace       = flag.Bool("trace", false, "log every SEND/ARRIVAL/DEPARTURE event (very verbose)")
	)
	flag.Parse()

	log := simlog.New()

	bw, err := parseBitrate(*maxBW)
	if err != nil {
		log.Errorw("invalid rate", "value", *maxBW, "err", err)
		os.Exit(1)
	}

	cctl := cca.DefaultConfig().Validate(log)

	simCfg := sim.DefaultConfig()
	simCfg.NumFlows = *flows
	simCfg.MSS = units.Bytes(*mss)
	simCfg.LossProb = *lossProb
	simCfg.Runtime = cca.Clock(*runtime_)
	simCfg.BaseRTT = func(cca.Clock, sim.FlowID) cca.Clock { return cca.Clock(*baseRTT) }
	simCfg.MaxBW = func(cca.Clock) units.Bitrate { return bw }
	simCfg.AppRate = func(cca.Clock, sim.FlowID) units.Bitrate { return 2 * bw }
	bdp := int(bw.Bps() * time.Duration(*baseRTT).Seconds() / 8 / float64(*mss))
	simCfg.BufSize = func(cca.Clock) int { return bdp }

	rng := rand.New(rand.NewSource(*seed))
	newCtl := newControllerFactory(*algo, cctl, log, rng)
	if newCtl == nil {
		log.Errorw("unknown algorithm", "algo", *algo)
		os.Exit(1)
	}

	sink := report.NewSink(os.Stdout, log)
	defer sink.Stop()

	var exporter *report.Exporter
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *metricsAddr != "" {
		exporter = report.NewExporter("ccphase")
		sink.Exporter = exporter
		go func() {
			if err := exporter.Serve(ctx, *metricsAddr); err != nil {
				log.Warnw("metrics exporter stopped", "err", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if !*quiet {
		go reportProgress(ctx, simCfg.Runtime)
	}

	d := sim.NewDriver(simCfg, newCtl, sink, log, rng)
	d.Trace = *trace
	if err := d.Run(ctx); err != nil {
		log.Errorw("simulation aborted", "err", err)
		os.Exit(1)
	}
}

// newControllerFactory returns a per-flow controller constructor for the
// named algorithm, or nil if algo isn't recognized.
func newControllerFactory(algo string, cfg cca.Config, log *simlog.Logger, rng *rand.Rand) func(sim.FlowID) cca.Controller {
	switch algo {
	case "davis":
		return func(sim.FlowID) cca.Controller { return cca.NewDavis(cfg, log, rng) }
	case "dumb":
		return func(sim.FlowID) cca.Controller { return cca.NewDumb(cfg, log, rng) }
	default:
		return nil
	}
}

// reportProgress prints an integer percent-complete to standard error at
// a wall-clock-throttled cadence (spec section 6, "Progress on standard
// error as integer percent"), independent of the simulator's own virtual
// clock, since this loop only tracks wall-clock elapsed time against the
// configured runtime as a rough proxy.
func reportProgress(ctx context.Context, runtime_ cca.Clock) {
	lim := rate.NewLimiter(rate.Every(250*time.Millisecond), 1)
	start := time.Now()
	total := time.Duration(runtime_)
	last := -1
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !lim.Allow() {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		pct := int(100 * float64(time.Since(start)) / float64(total))
		if pct > 100 {
			pct = 100
		}
		if pct != last {
			c := color.New(color.FgGreen)
			if pct >= 100 {
				c = color.New(color.FgYellow)
			}
			c.Fprintf(os.Stderr, "\rprogress: %3d%%", pct)
			last = pct
		}
		if pct >= 100 {
			fmt.Fprintln(os.Stderr)
			return
		}
	}
}

func parseBitrate(s string) (units.Bitrate, error) {
	var val float64
	var suffix string
	if _, err := fmt.Sscanf(s, "%f%s", &val, &suffix); err != nil {
		return 0, fmt.Errorf("parse rate %q: %w", s, err)
	}
	switch suffix {
	case "bps":
		return units.Bitrate(val), nil
	case "Kbps":
		return units.Bitrate(val * float64(units.Kbps)), nil
	case "Mbps":
		return units.Bitrate(val * float64(units.Mbps)), nil
	case "Gbps":
		return units.Bitrate(val * float64(units.Gbps)), nil
	default:
		return 0, fmt.Errorf("unrecognized rate suffix %q", suffix)
	}
}
