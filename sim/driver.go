// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package sim

import (
	"container/heap"
	"context"
	"math/rand"

	"github.com/heistp/ccphase/cca"
	"github.com/heistp/ccphase/internal/simlog"
	"github.com/heistp/ccphase/units"
)

// eventKind distinguishes the driver's three event types (spec section
// 4.3). Tie-breaking at equal timestamps prefers SEND over DEPARTURE
// over ARRIVAL; kind's numeric value encodes that priority directly.
type eventKind int

const (
	kindSend eventKind = iota
	kindDeparture
	kindArrival
)

func (k eventKind) String() string {
	switch k {
	case kindSend:
		return "SEND"
	case kindDeparture:
		return "DEPARTURE"
	case kindArrival:
		return "ARRIVAL"
	default:
		return "UNKNOWN"
	}
}

// event is one entry in the driver's event heap. seq is the insertion
// order, used to break ties between same-kind events at the same
// timestamp (spec section 4.3, "equal-timestamp events resolve in
// iteration order").
type event struct {
	at   cca.Clock
	kind eventKind
	flow FlowID
	seq  int
}

// eventHeap implements container/heap.Interface, repurposing the
// teacher's pktbuf heap (packet.go) from a per-node out-of-order receive
// buffer into the driver's global event schedule.
type eventHeap []event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	if h[i].kind != h[j].kind {
		return h[i].kind < h[j].kind
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(event))
}

func (h *eventHeap) Pop() any {
	o := *h
	n := len(o)
	e := o[n-1]
	*h = o[:n-1]
	return e
}

// Driver runs the discrete-event simulation loop described in spec
// section 4.3: it advances simulated time to the earliest pending SEND,
// ARRIVAL, or DEPARTURE and dispatches it, maintaining one bottleneck
// queue and one loss sink shared across all flows.
type Driver struct {
	cfg   Config
	flows []*flow
	bot   *bottleneck
	loss  *packetQueue
	log   *simlog.Logger
	sink  Sink

	events eventHeap
	seq    int
	now    cca.Clock

	lastReport cca.Clock

	// Trace enables per-event tracef output on the hot path, for
	// debugging a run step by step; it is off by default since it
	// dominates runtime cost at any reasonable packet rate.
	Trace bool
}

// Sink receives one record per flow per report interval (spec section
// 4.3, "Logging"). report.Sink implements this.
type Sink interface {
	WriteHeader(numFlows int) error
	Record(now cca.Clock, f FlowRecord) error
}

// FlowRecord is one CSV row's worth of data for a single flow at a
// report tick, matching the column set in spec section 6.
type FlowRecord struct {
	Flow       FlowID
	RTT        cca.Clock
	CWND       cca.Segments
	BytesSent  units.Bytes
	Losses     uint64
	PacingRate float64
	MaxRate    float64
	MinRTT     cca.Clock
	BDP        cca.Segments
	Mode       cca.Mode
}

// NewDriver builds a Driver with numFlows flows, each assigned the
// controller returned by newCtl(id). cfg must already be validated.
func NewDriver(cfg Config, newCtl func(id FlowID) cca.Controller, sink Sink, log *simlog.Logger, rng *rand.Rand) *Driver {
	if log == nil {
		log = simlog.Discard()
	}
	d := &Driver{
		cfg:  cfg,
		bot:  newBottleneck(rng),
		loss: newPacketQueue(),
		log:  log,
		sink: sink,
	}
	d.flows = make([]*flow, cfg.NumFlows)
	for i := 0; i < cfg.NumFlows; i++ {
		id := FlowID(i)
		start := cfg.FlowStartTime(id)
		d.flows[i] = newFlow(id, newCtl(id), cfg.MSS, start)
		d.pushSend(id, start)
	}
	return d
}

func (d *Driver) pushSend(id FlowID, at cca.Clock) {
	d.push(event{at: at, kind: kindSend, flow: id})
}

func (d *Driver) push(e event) {
	e.seq = d.seq
	d.seq++
	heap.Push(&d.events, e)
}

// Run executes the simulation until cfg.Runtime is reached or ctx is
// canceled. It returns ctx's error if ctx is canceled, or the sink's
// error if the header row cannot be written; otherwise it returns nil.
func (d *Driver) Run(ctx context.Context) error {
	if d.sink != nil {
		if err := d.sink.WriteHeader(len(d.flows)); err != nil {
			return err
		}
	}
	for d.now < d.cfg.Runtime {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.events.Len() == 0 {
			break
		}
		e := heap.Pop(&d.events).(event)
		d.now = e.at
		if d.Trace {
			tracef(d.now, e.flow, "%v", e.kind)
		}
		switch e.kind {
		case kindSend:
			d.handleSend(e.flow)
		case kindArrival:
			d.handleArrival(e.flow)
		case kindDeparture:
			d.handleDeparture()
		}
		d.drainLossSink()
		d.maybeReport()
	}
	return nil
}

func (d *Driver) handleSend(id FlowID) {
	f := d.flows[id]
	if d.now < d.cfg.FlowStartTime(id) {
		return
	}
	if d.now < f.nextSendTime {
		// already scheduled at nextSendTime, which keeps send_rate's spacing
		return
	}
	if cca.Segments(f.inflight) >= f.cwnd() {
		// cwnd-blocked: the next retry is driven by handleDeparture,
		// which re-issues a SEND as soon as the window opens again.
		return
	}
	p := Packet{Flow: id, SendTime: d.now}
	f.net.Enqueue(p)
	f.inflight++
	f.bytesSent += f.mss

	appRate := d.cfg.AppRate(d.now, id)
	rate := f.sendRate(appRate)
	var next cca.Clock
	if rate > 0 {
		next = d.now + cca.Clock(units.TransferTime(rate, f.mss))
	} else {
		next = d.now + 1
	}
	f.nextSendTime = next
	d.pushSend(id, next)

	baseRTT := d.cfg.BaseRTT(d.now, id)
	d.push(event{at: d.now + baseRTT, kind: kindArrival, flow: id})
}

func (d *Driver) handleArrival(id FlowID) {
	f := d.flows[id]
	p, ok := f.net.Dequeue()
	if !ok {
		return
	}
	bufSize := d.cfg.BufSize(d.now)
	maxBW := d.cfg.MaxBW(d.now)
	if d.bot.arrive(d.now, p, bufSize, d.cfg.LossProb, d.cfg.MSS, maxBW) {
		if d.bot.q.Len() == 1 {
			d.push(event{at: d.bot.nextDeparture, kind: kindDeparture})
		}
	} else {
		d.loss.Enqueue(p)
	}
}

func (d *Driver) handleDeparture() {
	maxBW := d.cfg.MaxBW(d.now)
	p, ok := d.bot.depart(d.now, d.cfg.MSS, maxBW)
	if !ok {
		return
	}
	f := d.flows[p.Flow]
	f.inflight--
	f.delivered++
	rtt := d.now - p.SendTime
	f.lastRTT = rtt
	f.ctl.OnAck(d.now, rtt, f.delivered)
	if !d.bot.empty() {
		d.push(event{at: d.bot.nextDeparture, kind: kindDeparture})
	}
	if cca.Segments(f.inflight) < f.cwnd() {
		d.pushSend(p.Flow, d.now)
	}
}

// drainLossSink implements spec section 4.3's post-processing step:
// after each event, every packet that landed in the loss sink this tick
// is charged against its flow and reported to the controller.
func (d *Driver) drainLossSink() {
	for {
		p, ok := d.loss.Dequeue()
		if !ok {
			return
		}
		f := d.flows[p.Flow]
		f.inflight--
		f.losses++
		f.ctl.OnLoss(d.now)
		if cca.Segments(f.inflight) < f.cwnd() {
			d.pushSend(p.Flow, d.now)
		}
	}
}

func (d *Driver) maybeReport() {
	if d.sink == nil {
		return
	}
	interval := d.cfg.ReportInterval(d.now)
	if interval <= 0 || d.now <= d.lastReport+interval {
		return
	}
	d.lastReport = d.now
	for _, f := range d.flows {
		rec := FlowRecord{
			Flow:       f.id,
			RTT:        f.lastRTT,
			CWND:       f.ctl.CWND(),
			BytesSent:  f.bytesSent,
			Losses:     f.losses,
			PacingRate: f.ctl.PacingRate(),
			MaxRate:    f.ctl.MaxRate(),
			MinRTT:     f.ctl.MinRTT(),
			BDP:        f.ctl.BDP(),
			Mode:       f.ctl.Mode(),
		}
		if err := d.sink.Record(d.now, rec); err != nil {
			d.log.Warnw("failed to write report record", "err", err)
		}
	}
}
