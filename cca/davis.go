// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package cca

import (
	"math/rand"

	"github.com/heistp/ccphase/internal/simlog"
	"github.com/heistp/ccphase/units"
)

// Davis is a phase-cycling congestion controller grounded on
// simulation/davis.c in the original implementation. It measures
// bandwidth and base RTT by inflating cwnd above the bandwidth-delay
// product (GAIN_1/GAIN_2), then holds (STABLE) and periodically drains
// standing queue (DRAIN) to refresh its base RTT estimate.
//
// Davis follows the canonical phase sequence from spec section 4.2:
//
//	RECOVER -> STABLE -> GAIN_1 -> GAIN_2 -> DRAIN -> STABLE -> ...
//
// which differs from the original C's DRAIN-before-GAIN ordering; spec
// section 4.2 explicitly sanctions either published shape and asks a
// conformant implementation to pick and document one (see DESIGN.md).
type Davis struct {
	cfg Config
	log *simlog.Logger
	rng *rand.Rand

	mode       Mode
	transTime  Clock
	stableRTTs uint64

	mss units.Bytes

	cwnd, ssthresh Segments
	bdp, ssLastBDP Segments
	lastBDP        Segments

	incFactor uint64

	lastRTT, minRTT, minRTTTime, srtt Clock

	deliveredStart     uint64
	deliveredStartTime Clock

	pacingRate float64
}

var _ Controller = (*Davis)(nil)

// NewDavis returns a Davis controller using the validated config cfg. Log
// may be simlog.Discard() if diagnostics aren't wanted. rng may be nil, in
// which case StableRTTsMin/Max randomization (spec section 4.2) is
// disabled and StableRTTs is used directly.
func NewDavis(cfg Config, log *simlog.Logger, rng *rand.Rand) *Davis {
	if log == nil {
		log = simlog.Discard()
	}
	return &Davis{cfg: cfg, log: log, rng: rng}
}

// Init implements Controller.
func (d *Davis) Init(now Clock, mss units.Bytes) {
	d.mss = mss
	d.mode = ModeRecover
	d.transTime = now
	d.cwnd = d.cfg.MinCWND
	d.ssthresh = d.cfg.MaxCWND
	d.bdp = d.cfg.MinCWND
	d.ssLastBDP = 0
	d.lastBDP = 0
	d.incFactor = d.cfg.MinIncFactor
	d.pacingRate = 0
	d.lastRTT = 1
	d.minRTT = d.cfg.RTTInf
	d.minRTTTime = now
	d.stableRTTs = d.cfg.StableRTTs
}

// OnAck implements Controller.
func (d *Davis) OnAck(now, rtt Clock, delivered uint64) {
	if rtt > 0 {
		d.updateRTT(now, rtt)
	}
	if inSlowStart(d.cwnd, d.ssthresh) {
		d.slowStartOnAck(now, delivered)
	} else {
		switch d.mode {
		case ModeRecover:
			if now > d.transTime+Clock(d.cfg.RecRTTs)*d.lastRTT {
				d.enterStable(now, false)
			}
		case ModeStable:
			if now > d.transTime+Clock(d.stableRTTs)*d.lastRTT {
				d.enterGain1(now)
			}
		case ModeGain1:
			if now > d.transTime+Clock(d.cfg.Gain1RTTs)*d.lastRTT {
				d.enterGain2(now, delivered)
			} else {
				d.cwnd = d.gainCWND()
			}
		case ModeGain2:
			if now > d.transTime+Clock(d.cfg.Gain2RTTs)*d.lastRTT {
				d.exitGain2(now, delivered)
			}
		case ModeDrain:
			if now > d.transTime+Clock(d.cfg.DrainRTTs)*d.lastRTT {
				d.enterStable(now, true)
			}
		default:
			d.log.UnknownMode(d.mode)
			d.enterDrain(now)
		}
	}
	d.cwnd = clampSegments(d.cwnd, d.cfg.MinCWND, d.cfg.MaxCWND)
	d.updatePacingRate()
}

// OnLoss implements Controller.
func (d *Davis) OnLoss(now Clock) {
	if inSlowStart(d.cwnd, d.ssthresh) {
		d.cwnd = d.bdp + d.gainCWND()
		d.mode = ModeGain1
		d.transTime = now
	} else if d.mode == ModeGain1 || d.mode == ModeGain2 {
		react := true
		if d.cfg.GainFamily == FactorGain {
			react = d.incFactor < d.cfg.MaxIncFactor
			if react {
				d.incFactor = clampUint64(d.incFactor*2, d.cfg.MinIncFactor, d.cfg.MaxIncFactor)
			}
		}
		if react {
			d.enterRecover(now)
		}
	}
	d.cwnd = clampSegments(d.cwnd, d.cfg.MinCWND, d.cfg.MaxCWND)
	d.updatePacingRate()
}

func (d *Davis) slowStartOnAck(now Clock, delivered uint64) {
	switch d.mode {
	case ModeGain1:
		if now > d.transTime+Clock(d.cfg.Gain1RTTs)*d.lastRTT {
			d.enterGain2(now, delivered)
		}
	case ModeGain2:
		if now > d.transTime+Clock(d.cfg.Gain2RTTs)*d.lastRTT {
			interval := now - d.deliveredStartTime
			est, ok := ceilDivBDP(delivered-d.deliveredStart, d.minRTT, interval)
			if !ok {
				est = d.bdp // divide-by-zero guard: retain prior bdp
			} else if est < d.cfg.MinCWND {
				est = d.cfg.MinCWND
			}
			if est > d.ssLastBDP {
				d.mode = ModeGain1
				d.transTime = now
				d.bdp = est
				d.cwnd = ssGainCWND(d.cfg, est)
				d.ssLastBDP = est
			} else {
				d.bdp = est
				d.ssthresh = d.cfg.MinCWND
				d.cwnd = est + d.gainCWND()
				d.mode = ModeGain1
				d.transTime = now
			}
		}
	default:
		d.mode = ModeGain1
		d.transTime = now
		d.bdp = d.cfg.MinCWND
		d.ssLastBDP = 0
		d.cwnd = d.cfg.MinCWND
		d.minRTT = d.lastRTT
		d.minRTTTime = now
	}
}

func (d *Davis) enterRecover(now Clock) {
	d.mode = ModeRecover
	d.transTime = now
	d.cwnd = d.bdp
	d.ssthresh = d.bdp
}

// enterStable is reached both from RECOVER (steady state) and from DRAIN.
// refreshMinRTT is true only on the DRAIN path, where min_rtt is reset to
// the last RTT sample, taken at the end of DRAIN when the queue is
// believed empty. The smallest sample seen during DRAIN is not tracked
// separately.
func (d *Davis) enterStable(now Clock, refreshMinRTT bool) {
	d.mode = ModeStable
	d.transTime = now
	d.stableRTTs = stableRTTs(d.cfg, d.rng)
	d.cwnd = d.bdp
	d.ssthresh = d.cwnd
	if d.incFactor > d.cfg.MinIncFactor {
		d.incFactor--
	}
	if refreshMinRTT {
		d.minRTT = d.lastRTT
		d.minRTTTime = now
	}
}

func (d *Davis) enterGain1(now Clock) {
	d.mode = ModeGain1
	d.transTime = now
	d.cwnd = d.gainCWND()
}

func (d *Davis) enterGain2(now Clock, delivered uint64) {
	d.mode = ModeGain2
	d.transTime = now
	d.deliveredStart = delivered
	d.deliveredStartTime = now
}

func (d *Davis) exitGain2(now Clock, delivered uint64) {
	interval := now - d.deliveredStartTime
	if est, ok := ceilDivBDP(delivered-d.deliveredStart, d.minRTT, interval); ok {
		d.lastBDP = d.bdp
		d.bdp = clampSegments(est, d.cfg.MinCWND, d.cfg.MaxCWND)
	}
	timedOut := d.cfg.RTTTimeout > 0 && now-d.minRTTTime > d.cfg.RTTTimeout
	d.enterDrain(now)
	if timedOut {
		d.minRTT = d.lastRTT
		d.minRTTTime = now
	}
}

func (d *Davis) enterDrain(now Clock) {
	d.mode = ModeDrain
	d.transTime = now
	d.cwnd = d.cfg.MinCWND
	d.ssthresh = d.cfg.MinCWND
}

func (d *Davis) gainCWND() Segments {
	if d.cfg.GainFamily == LucasGainFamily {
		return lucasGainCWND(d.cfg, d.bdp, d.lastBDP)
	}
	g, clamped := factorGainCWND(d.cfg, d.bdp, d.incFactor)
	d.incFactor = clamped
	return g
}

func (d *Davis) updateRTT(now, rtt Clock) {
	if rtt < processingNoiseThreshold {
		d.srtt = smoothRTT(d.srtt, rtt)
		rtt = d.srtt
	}
	d.lastRTT = rtt
	if rtt < d.minRTT {
		d.minRTT = rtt
		d.minRTTTime = now
	}
}

func (d *Davis) updatePacingRate() {
	if d.lastRTT <= 0 {
		d.pacingRate = 0
		return
	}
	gain := d.cfg.PacingGainStable
	if d.mode == ModeGain1 || d.mode == ModeGain2 {
		if d.cfg.PacingGainGain == 0 {
			d.pacingRate = 0 // unlimited: let cwnd dictate during the gain cycle
			return
		}
		gain = d.cfg.PacingGainGain
	}
	d.pacingRate = gain * float64(d.cwnd) * float64(d.mss) / d.lastRTT.Seconds()
}

func (d *Davis) CWND() Segments      { return d.cwnd }
func (d *Davis) Ssthresh() Segments  { return d.ssthresh }
func (d *Davis) PacingRate() float64 { return d.pacingRate }

// MaxRate returns the bandwidth implied by the current bdp estimate and
// minimum RTT. Davis has no separate running-max-rate tracker like Dumb's
// (its bdp estimate already plays that role), so this is bdp*mss/min_rtt
// rather than a distinct measurement.
func (d *Davis) MaxRate() float64 {
	if d.minRTT <= 0 || d.minRTT >= d.cfg.RTTInf {
		return 0
	}
	return float64(d.bdp) * float64(d.mss) / d.minRTT.Seconds()
}

func (d *Davis) Mode() Mode    { return d.mode }
func (d *Davis) BDP() Segments { return d.bdp }
func (d *Davis) MinRTT() Clock { return d.minRTT }

func clampUint64(v, lo, hi uint64) uint64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
