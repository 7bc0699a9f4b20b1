// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package cca

import (
	"testing"

	"github.com/heistp/ccphase/internal/simlog"
	"github.com/heistp/ccphase/units"
	"github.com/stretchr/testify/assert"
)

func newTestDumb() *Dumb {
	cfg := DefaultConfig().Validate(simlog.Discard())
	return NewDumb(cfg, simlog.Discard(), nil)
}

func TestDumbInitState(t *testing.T) {
	d := newTestDumb()
	d.Init(0, 1500*units.Byte)
	assert.Equal(t, ModeDrain, d.Mode())
	assert.Equal(t, d.cfg.MinCWND, d.CWND())
	assert.True(t, inSlowStart(d.CWND(), d.Ssthresh()))
}

func TestDumbGainIsThreeHalvesBDP(t *testing.T) {
	d := newTestDumb()
	d.Init(0, 1500*units.Byte)
	d.bdp = 100
	assert.Equal(t, Segments(150), d.gainCWND())
}

func TestDumbDrainTargetIsHalfBDP(t *testing.T) {
	d := newTestDumb()
	d.Init(0, 1500*units.Byte)
	d.bdp = 100
	assert.Equal(t, Segments(50), d.drainCWND())
}

// TestDumbBoundaryNoEarlyTransition mirrors the Davis boundary property: a
// sample landing exactly at transTime+k*lastRTT must not fire the
// transition.
func TestDumbBoundaryNoEarlyTransition(t *testing.T) {
	d := newTestDumb()
	d.Init(0, 1500*units.Byte)
	d.mode = ModeStable
	d.ssthresh = 0 // force out of slow start
	d.cwnd = d.cfg.MinCWND
	d.transTime = 0

	rtt := Clock(10e6)
	d.lastRTT = rtt
	boundary := d.transTime + Clock(d.cfg.StableRTTs)*rtt

	d.OnAck(boundary, rtt, 1)
	assert.Equal(t, ModeStable, d.Mode())

	d.OnAck(boundary+1, rtt, 2)
	assert.Equal(t, ModeGain1, d.Mode())
}

func TestDumbLossHalvesBDPAndEntersRecover(t *testing.T) {
	d := newTestDumb()
	d.Init(0, 1500*units.Byte)
	d.mode = ModeStable
	d.bdp = 200

	d.OnLoss(Clock(1e6))

	assert.Equal(t, ModeRecover, d.Mode())
	assert.Equal(t, Segments(100), d.BDP())
	assert.Equal(t, d.BDP(), d.CWND())
}

func TestDumbLossWhileRecoveringIsNoop(t *testing.T) {
	d := newTestDumb()
	d.Init(0, 1500*units.Byte)
	d.mode = ModeRecover
	d.bdp = 200
	d.OnLoss(Clock(1e6))
	assert.Equal(t, Segments(200), d.BDP(), "a second loss while RECOVER must not halve bdp again")
}

func TestDumbSlowStartExitsOnQueueingDelay(t *testing.T) {
	d := newTestDumb()
	d.Init(0, 1500*units.Byte)
	d.transTime = 0
	d.minRTT = Clock(10e6)
	d.maxRTT = Clock(20e6) // > 1.5*minRTT
	d.lastRTT = Clock(10e6)
	d.bdp = 50

	d.slowStartOnAck(Clock(11e6))

	assert.Equal(t, ModeDrain, d.Mode())
}

func TestDumbPacingRateIsAlwaysUnrestricted(t *testing.T) {
	d := newTestDumb()
	d.Init(0, 1500*units.Byte)
	assert.Zero(t, d.PacingRate())
}

func TestDumbMaxRateReflectsRunningMaxInBytes(t *testing.T) {
	d := newTestDumb()
	d.Init(0, 1500*units.Byte)
	d.maxRate = 1000 // segments/second
	assert.Equal(t, 1000*float64(1500*units.Byte), d.MaxRate())
}
