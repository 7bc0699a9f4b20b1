// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package sim

import (
	"github.com/heistp/ccphase/cca"
	"github.com/heistp/ccphase/units"
)

// Config holds the simulator's init-time constants (spec section 6,
// "Simulator configuration"). The teacher threads equivalent settings
// through package-level const/var declarations (config.go); per the
// immutable-configuration-value guidance of spec section 9 we instead
// collect them into one value passed to NewDriver.
//
// The per-time functions mirror the teacher's RateSchedule/FlowDelay
// var-based schedules (config.go), generalized to arbitrary functions of
// simulated time so a caller can script a bottleneck-rate step (scenario
// S4) or a staggered flow start (scenario S3) without editing the
// simulator itself.
type Config struct {
	NumFlows int
	MSS      units.Bytes
	LossProb float64
	Runtime  cca.Clock

	// BaseRTT is the propagation delay from SEND to ARRIVAL at the
	// bottleneck for flow id at simulated time now, excluding any
	// bottleneck queueing or service delay; with an empty queue it is
	// the RTT the controller converges on.
	BaseRTT func(now cca.Clock, flow FlowID) cca.Clock
	// MaxBW is the bottleneck's service rate at simulated time now.
	MaxBW func(now cca.Clock) units.Bitrate
	// AppRate caps how fast flow id's application can hand off data;
	// a send_rate of min(AppRate, pacing_rate) is used for SEND
	// scheduling (spec section 4.3).
	AppRate func(now cca.Clock, flow FlowID) units.Bitrate
	// BufSize is the bottleneck queue's capacity in packets at time now.
	BufSize func(now cca.Clock) int
	// FlowStartTime is when flow id becomes eligible to SEND.
	FlowStartTime func(flow FlowID) cca.Clock
	// ReportInterval is the simulated duration between CSV records at
	// time now.
	ReportInterval func(now cca.Clock) cca.Clock
}

// DefaultConfig returns a single-flow configuration matching the
// constants in simulation/simulation.c in the original implementation:
// 10Gbps bottleneck, 30ms base RTT, buffer sized to one BDP, app rate
// twice the bottleneck rate, 60s runtime.
func DefaultConfig() Config {
	const baseRTT = cca.Clock(30e6) // 30ms
	const maxBW = 10 * units.Gbps
	const mss = 512 * units.Byte
	bdp := int(float64(maxBW.Bps()) * baseRTT.Seconds() / 8 / float64(mss))

	return Config{
		NumFlows: 1,
		MSS:      mss,
		LossProb: 0,
		Runtime:  cca.Clock(60e9), // 60s
		BaseRTT: func(cca.Clock, FlowID) cca.Clock {
			return baseRTT
		},
		MaxBW: func(cca.Clock) units.Bitrate {
			return maxBW
		},
		AppRate: func(cca.Clock, FlowID) units.Bitrate {
			return 2 * maxBW
		},
		BufSize: func(cca.Clock) int {
			return bdp
		},
		FlowStartTime: func(FlowID) cca.Clock {
			return 0
		},
		ReportInterval: func(now cca.Clock) cca.Clock {
			return cca.Clock(60e9) / 1000
		},
	}
}
