// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package cca

import (
	"math"
	"math/rand"

	"github.com/heistp/ccphase/units"
)

// Controller is the API a host transport or the simulator drives a
// congestion control algorithm through (spec section 6).
type Controller interface {
	// Init initializes all state for a new flow starting at now, with
	// the given maximum segment size in bytes.
	Init(now Clock, mss units.Bytes)
	// OnAck is called once per acknowledged packet, in the order the
	// acks are observed, with the round-trip time of the acked packet
	// and the flow's total delivered-segment counter.
	OnAck(now, rtt Clock, delivered uint64)
	// OnLoss applies the controller's loss policy.
	OnLoss(now Clock)

	CWND() Segments
	Ssthresh() Segments
	PacingRate() float64 // bytes/second; 0 means unrestricted
	MaxRate() float64    // bytes/second, largest sustained delivery rate observed
	Mode() Mode
	BDP() Segments
	MinRTT() Clock
}

// inSlowStart reports whether cwnd < ssthresh, the universal slow-start
// condition (spec section 3).
func inSlowStart(cwnd, ssthresh Segments) bool {
	return cwnd < ssthresh
}

// clampSegments clamps v into [lo, hi].
func clampSegments(v, lo, hi Segments) Segments {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ceilDivBDP computes ceil(deliveredSegments * minRTT / interval), the
// canonical BDP estimation formula from spec section 4.2, guarding
// against a non-positive interval (spec section 7, "Divide-by-zero
// guard") by returning ok=false so the caller can retain the prior bdp.
func ceilDivBDP(deliveredSegments uint64, minRTT, interval Clock) (bdp Segments, ok bool) {
	if interval <= 0 {
		return 0, false
	}
	est := math.Ceil(float64(deliveredSegments) * float64(minRTT) / float64(interval))
	if est < 0 {
		est = 0
	}
	return Segments(est), true
}

// processingNoiseThreshold is the RTT sample size below which a sample is
// considered too close to scheduling-tick noise to trust directly; a
// smoothed RTT is substituted instead (spec section 4.2, "Smoothed RTT
// fallback").
const processingNoiseThreshold = Clock(1e6) // 1ms

// smoothRTT applies the exponential smoothing rule srtt = (7*srtt+rtt)/8,
// initializing srtt to rtt on the first sample.
func smoothRTT(srtt, rtt Clock) Clock {
	if srtt == 0 {
		return rtt
	}
	return (7*srtt + rtt) / 8
}

// stableRTTs picks the number of RTTs a STABLE entry should hold for. When
// cfg.StableRTTsMin/Max are both set, it draws uniformly from
// [StableRTTsMin, StableRTTsMax] on rng to decorrelate competing flows
// (spec section 4.2, "STABLE... variants may randomise STABLE_RTTS"); with
// no rng, or with the range unset, it falls back to cfg.StableRTTs.
func stableRTTs(cfg Config, rng *rand.Rand) uint64 {
	if rng == nil || cfg.StableRTTsMin == 0 || cfg.StableRTTsMax == 0 {
		return cfg.StableRTTs
	}
	lo, hi := cfg.StableRTTsMin, cfg.StableRTTsMax
	if hi <= lo {
		return lo
	}
	return lo + uint64(rng.Int63n(int64(hi-lo+1)))
}
