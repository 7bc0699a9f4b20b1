// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package cca

import (
	"math/rand"

	"github.com/heistp/ccphase/internal/simlog"
	"github.com/heistp/ccphase/units"
)

// Dumb is a phase-cycling congestion controller grounded on
// simulation/dumb.c in the original implementation. Unlike Davis, it has
// no inc_factor: its gain is a fixed 3*bdp/2 and its drain target is
// bdp/2, and it estimates bandwidth as a running maximum of
// delivered/rtt rather than from a delivered-segment counter snapshot.
//
// Dumb cycles through the same phases as Davis:
//
//	STABLE -> GAIN_1 -> GAIN_2 -> DRAIN -> STABLE -> ...
//
// except that after a loss RECOVER takes the place of STABLE: it is held
// for the STABLE duration and is followed directly by GAIN_1.
type Dumb struct {
	cfg Config
	log *simlog.Logger
	rng *rand.Rand

	mode       Mode
	transTime  Clock
	stableRTTs uint64

	mss units.Bytes

	cwnd, ssthresh Segments
	bdp            Segments

	maxRate                 float64 // segments/second, running max of delivered/rtt
	lastRTT, minRTT, maxRTT Clock
}

var _ Controller = (*Dumb)(nil)

// NewDumb returns a Dumb controller using the validated config cfg. Log may
// be simlog.Discard() if diagnostics aren't wanted. rng may be nil, in
// which case StableRTTsMin/Max randomization (spec section 4.2) is
// disabled and StableRTTs is used directly.
func NewDumb(cfg Config, log *simlog.Logger, rng *rand.Rand) *Dumb {
	if log == nil {
		log = simlog.Discard()
	}
	return &Dumb{cfg: cfg, log: log, rng: rng}
}

// Init implements Controller.
func (d *Dumb) Init(now Clock, mss units.Bytes) {
	d.mss = mss
	d.mode = ModeDrain
	d.transTime = now
	d.bdp = d.cfg.MaxCWND
	d.cwnd = d.cfg.MinCWND
	d.ssthresh = d.cfg.MaxCWND
	d.maxRate = 0
	d.lastRTT = 1
	d.minRTT = d.cfg.RTTInf
	d.maxRTT = 0
	d.stableRTTs = d.cfg.StableRTTs
}

// OnAck implements Controller.
func (d *Dumb) OnAck(now, rtt Clock, delivered uint64) {
	if rtt > 0 {
		if r := float64(delivered) / rtt.Seconds(); r > d.maxRate {
			d.maxRate = r
		}
		d.lastRTT = rtt
		d.minRTT = clockMin(d.minRTT, rtt)
		d.maxRTT = clockMax(d.maxRTT, rtt)
	}

	if inSlowStart(d.cwnd, d.ssthresh) {
		d.slowStartOnAck(now)
	} else {
		switch d.mode {
		case ModeDrain:
			if now > d.transTime+Clock(d.cfg.DrainRTTs)*d.lastRTT {
				d.enterStable(now)
			} else {
				d.bdp = d.bdpEstimate()
				d.cwnd = d.drainCWND()
				d.ssthresh = d.cwnd
			}
		case ModeRecover, ModeStable:
			if now > d.transTime+Clock(d.stableRTTs)*d.lastRTT {
				d.enterGain1(now)
			}
		case ModeGain1:
			if now > d.transTime+Clock(d.cfg.Gain1RTTs)*d.lastRTT {
				d.enterGain2(now)
			}
		case ModeGain2:
			if now > d.transTime+Clock(d.cfg.Gain2RTTs)*d.lastRTT {
				d.enterDrain(now)
			}
		default:
			d.unknownMode()
			d.enterDrain(now)
		}
	}
	d.cwnd = clampSegments(d.cwnd, d.cfg.MinCWND, d.cfg.MaxCWND)
}

// OnLoss implements Controller.
func (d *Dumb) OnLoss(now Clock) {
	if d.mode == ModeRecover {
		return
	}
	d.mode = ModeRecover
	d.transTime = now
	d.bdp = clampSegments(d.bdp/2, d.cfg.MinCWND, d.cfg.MaxCWND)
	d.cwnd = d.bdp
	d.ssthresh = d.bdp
	d.maxRate = 0
	d.minRTT = d.cfg.RTTInf
	d.maxRTT = 0
}

func (d *Dumb) slowStartOnAck(now Clock) {
	if now <= d.transTime+d.lastRTT {
		return
	}
	d.transTime = now
	newBDP := d.bdpEstimate()
	// Exit slow start once queueing delay appears (max_rtt grew well past
	// min_rtt) or the BDP estimate has stopped growing.
	if d.maxRTT > Clock(1.5*float64(d.minRTT)) || d.bdp == newBDP {
		d.enterDrain(now)
	} else {
		d.bdp = newBDP
		d.cwnd = d.gainCWND()
	}
}

func (d *Dumb) enterDrain(now Clock) {
	d.mode = ModeDrain
	d.transTime = now
	d.bdp = d.bdpEstimate()
	d.cwnd = d.drainCWND()
	d.ssthresh = d.cwnd
}

func (d *Dumb) enterStable(now Clock) {
	d.mode = ModeStable
	d.transTime = now
	d.stableRTTs = stableRTTs(d.cfg, d.rng)
	d.bdp = d.bdpEstimate()
	d.cwnd = d.bdp
	d.ssthresh = d.bdp
}

func (d *Dumb) enterGain1(now Clock) {
	d.mode = ModeGain1
	d.transTime = now
	d.cwnd = d.gainCWND()
}

func (d *Dumb) enterGain2(now Clock) {
	d.mode = ModeGain2
	d.transTime = now
	d.maxRate = 0
	d.minRTT = d.cfg.RTTInf
	d.maxRTT = 0
}

func (d *Dumb) bdpEstimate() Segments {
	est := Segments(d.maxRate * d.minRTT.Seconds())
	if est < d.cfg.MinCWND {
		est = d.cfg.MinCWND
	}
	return est
}

func (d *Dumb) gainCWND() Segments {
	return Segments(3 * uint64(d.bdp) / 2)
}

func (d *Dumb) drainCWND() Segments {
	return Segments(uint64(d.bdp) / 2)
}

func (d *Dumb) unknownMode() {
	d.log.UnknownMode(d.mode)
}

func (d *Dumb) CWND() Segments      { return d.cwnd }
func (d *Dumb) Ssthresh() Segments  { return d.ssthresh }
func (d *Dumb) PacingRate() float64 { return 0 } // Dumb carries no pacing hint, per original
func (d *Dumb) MaxRate() float64    { return d.maxRate * float64(d.mss) }
func (d *Dumb) Mode() Mode          { return d.mode }
func (d *Dumb) BDP() Segments       { return d.bdp }
func (d *Dumb) MinRTT() Clock       { return d.minRTT }
