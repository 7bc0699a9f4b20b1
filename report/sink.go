// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package report writes the simulator's per-flow CSV records (spec
// section 6) and, at the end of a run, summarizes each flow's RTT/cwnd
// distribution. It is the terminal-native descendant of the teacher's
// file-based Xplot traces (xplot.go): instead of writing a trace file
// per metric for an external plotting tool, it renders an ASCII
// sparkline directly to the log at Stop.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/guptarohit/asciigraph"

	"github.com/heistp/ccphase/cca"
	"github.com/heistp/ccphase/internal/simlog"
	"github.com/heistp/ccphase/sim"
)

// perFlowHist tracks one flow's RTT (microseconds) and cwnd (segments)
// distribution across a run, plus a decimated cwnd time series for the
// end-of-run sparkline.
type perFlowHist struct {
	rtt  *hdrhistogram.Histogram
	cwnd *hdrhistogram.Histogram

	series []float64
}

func newPerFlowHist() *perFlowHist {
	return &perFlowHist{
		rtt:  hdrhistogram.New(1, 10*1000*1000, 3), // 1us..10s
		cwnd: hdrhistogram.New(1, 1<<25, 3),         // MIN_CWND..MAX_CWND
	}
}

func (h *perFlowHist) record(rtt cca.Clock, cwnd cca.Segments) {
	if us := rtt.Seconds() * 1e6; us > 0 {
		h.rtt.RecordValue(int64(us))
	}
	if cwnd > 0 {
		h.cwnd.RecordValue(int64(cwnd))
	}
	h.series = append(h.series, float64(cwnd))
}

// Sink writes one CSV row per report interval per flow and implements
// sim.Sink. Multi-flow runs use the full column set from spec section
// 6; single-flow runs use the reduced set.
type Sink struct {
	w         *csv.Writer
	log       *simlog.Logger
	hist      map[sim.FlowID]*perFlowHist
	multiFlow bool

	// Exporter, if set, receives every record alongside the CSV row, so
	// -metrics and the CSV stream stay in lockstep off the same report
	// ticks (spec section 6's CSV surface plus the additive Prometheus
	// surface from SPEC_FULL.md section 7).
	Exporter *Exporter
}

// NewSink returns a Sink writing CSV records to w. log may be
// simlog.Discard(); it only receives the end-of-run summary.
func NewSink(w io.Writer, log *simlog.Logger) *Sink {
	if log == nil {
		log = simlog.Discard()
	}
	return &Sink{w: csv.NewWriter(w), log: log, hist: make(map[sim.FlowID]*perFlowHist)}
}

// WriteHeader implements sim.Sink.
func (s *Sink) WriteHeader(numFlows int) error {
	var header []string
	if numFlows > 1 {
		header = []string{"flow_id", "time", "rtt", "cwnd", "bytes_sent",
			"losses", "pacing_rate", "min_rtt", "bdp", "mode"}
	} else {
		header = []string{"time", "rtt", "cwnd", "rate", "losses",
			"max_rate", "min_rtt", "bdp", "mode"}
	}
	s.multiFlow = numFlows > 1
	if err := s.w.Write(header); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Record implements sim.Sink.
func (s *Sink) Record(now cca.Clock, f sim.FlowRecord) error {
	h, ok := s.hist[f.Flow]
	if !ok {
		h = newPerFlowHist()
		s.hist[f.Flow] = h
	}
	h.record(f.RTT, f.CWND)

	if s.Exporter != nil {
		s.Exporter.Update(f)
	}

	var row []string
	if s.multiFlow {
		row = []string{
			strconv.Itoa(int(f.Flow)),
			now.String(),
			f.RTT.String(),
			strconv.FormatUint(uint64(f.CWND), 10),
			strconv.FormatUint(uint64(f.BytesSent), 10),
			strconv.FormatUint(f.Losses, 10),
			strconv.FormatFloat(f.PacingRate, 'f', 2, 64),
			f.MinRTT.String(),
			strconv.FormatUint(uint64(f.BDP), 10),
			strconv.Itoa(int(f.Mode)),
		}
	} else {
		rate := 0.0
		if f.RTT > 0 {
			rate = float64(f.CWND) / f.RTT.Seconds()
		}
		row = []string{
			now.String(),
			f.RTT.String(),
			strconv.FormatUint(uint64(f.CWND), 10),
			strconv.FormatFloat(rate, 'f', 2, 64),
			strconv.FormatUint(f.Losses, 10),
			strconv.FormatFloat(f.MaxRate, 'f', 2, 64),
			f.MinRTT.String(),
			strconv.FormatUint(uint64(f.BDP), 10),
			strconv.Itoa(int(f.Mode)),
		}
	}
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Stop flushes any buffered output and logs an end-of-run summary: an
// ASCII sparkline of cwnd-over-time plus RTT/cwnd percentiles, per flow.
func (s *Sink) Stop() {
	s.w.Flush()
	for id, h := range s.hist {
		if h.rtt.TotalCount() == 0 {
			continue
		}
		graph := asciigraph.Plot(h.series, asciigraph.Height(8), asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("flow %d cwnd", id)))
		s.log.Infow("flow summary",
			"flow", id,
			"rtt_p50_us", h.rtt.ValueAtQuantile(50),
			"rtt_p95_us", h.rtt.ValueAtQuantile(95),
			"rtt_p99_us", h.rtt.ValueAtQuantile(99),
			"cwnd_p50", h.cwnd.ValueAtQuantile(50),
			"cwnd_p99", h.cwnd.ValueAtQuantile(99),
		)
		s.log.Info(graph)
	}
}
