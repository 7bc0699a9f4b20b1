// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package cca

// factorGainCWND implements the factor gain family (spec 4.2.i):
// gain_cwnd = (inc_factor+1)*bdp/inc_factor, lower-bounded by bdp+MinCWND.
// incFactor is clamped into [MinIncFactor, MaxIncFactor] in place and the
// clamped value is returned alongside the gain.
func factorGainCWND(cfg Config, bdp Segments, incFactor uint64) (gain Segments, clamped uint64) {
	clamped = incFactor
	if clamped < cfg.MinIncFactor {
		clamped = cfg.MinIncFactor
	}
	if clamped > cfg.MaxIncFactor {
		clamped = cfg.MaxIncFactor
	}
	g := (clamped + 1) * uint64(bdp) / clamped
	min := uint64(bdp) + uint64(cfg.MinCWND)
	if g < min {
		g = min
	}
	return Segments(g), clamped
}

// ssGainCWND implements the slow-start exponential-growth gain
// (`ss_cwnd` in davis.c): (SS_INC_FACTOR+1)*bdp/SS_INC_FACTOR,
// lower-bounded by bdp+MinCWND. At the default SS_INC_FACTOR of 2 this
// is exactly the 3*bdp/2 step spec section 4.2 gives for the slow-start
// up-transition; SS_INC_FACTOR lets an operator tune that step per spec
// section 4.4.
func ssGainCWND(cfg Config, bdp Segments) Segments {
	f := cfg.SSIncFactor
	if f < 1 {
		f = 1
	}
	g := (f + 1) * uint64(bdp) / f
	min := uint64(bdp) + uint64(cfg.MinCWND)
	if g < min {
		g = min
	}
	return Segments(g)
}

// lucasGainCWND implements the Lucas-recurrence gain family (spec 4.2.ii).
// With REACTIVITY > SENSITIVITY >= 0:
//
//	alpha = 1 + REACTIVITY - SENSITIVITY/REACTIVITY
//	beta  = SENSITIVITY - alpha
//	gain  = alpha*bdp + beta*lastBDP
//
// clamped below by max(SENSITIVITY*bdp, MinGainCWND).
func lucasGainCWND(cfg Config, bdp, lastBDP Segments) Segments {
	alpha := 1 + cfg.Reactivity - cfg.Sensitivity/cfg.Reactivity
	beta := cfg.Sensitivity - alpha
	gain := alpha*float64(bdp) + beta*float64(lastBDP)
	floor := cfg.Sensitivity * float64(bdp)
	if mg := float64(cfg.MinGainCWND); mg > floor {
		floor = mg
	}
	if gain < floor {
		gain = floor
	}
	if gain < 0 {
		gain = 0
	}
	return Segments(gain)
}
