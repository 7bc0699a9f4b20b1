// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package cca

import "github.com/heistp/ccphase/internal/simlog"

// Segments is a count of MSS-sized segments, used for cwnd, ssthresh and
// bdp, matching the "unsigned long" fields of the original C structures.
type Segments uint64

// GainFamily selects which of the two published gain-computation families
// (spec section 4.2) a Davis controller uses.
type GainFamily int

const (
	// FactorGain computes gain_cwnd from an adaptive inc_factor.
	FactorGain GainFamily = iota
	// LucasGainFamily computes gain_cwnd from the Lucas-recurrence
	// REACTIVITY/SENSITIVITY parameters.
	LucasGainFamily
)

// Config holds every tunable named in spec section 4.4. It is immutable
// once validated: construct with DefaultConfig, adjust fields, then call
// Validate to get a sanitized copy to pass to NewDavis or NewDumb.
type Config struct {
	MinCWND Segments
	MaxCWND Segments

	RecRTTs    uint64
	StableRTTs uint64
	Gain1RTTs  uint64
	Gain2RTTs  uint64
	DrainRTTs  uint64

	// StableRTTsMin/Max, when both nonzero, randomize StableRTTs per
	// STABLE entry within [min, max] to decorrelate competing flows.
	StableRTTsMin uint64
	StableRTTsMax uint64

	MinIncFactor uint64
	MaxIncFactor uint64
	SSIncFactor  uint64

	GainFamily    GainFamily
	Reactivity    float64
	Sensitivity   float64
	MinGainCWND   Segments
	MaxGainFactor float64
	GainRate      float64

	RTTTimeout Clock
	RTTInf     Clock

	// PacingGainStable and PacingGainGain scale the pacing_rate hint in
	// non-gain phases and during the gain cycle respectively; both
	// default to 1.0, which paces at exactly the cwnd-implied rate and
	// so never throttles below what cwnd already allows. Setting
	// PacingGainGain to 0 restores the original unrestricted ("let
	// cwnd dictate") gain-cycle pacing; values above 1 ask for more
	// aggressive pacing during GAIN_1/GAIN_2. Supplemented from the
	// kernel modules in original_source/, which expose an equivalent
	// ratio knob that the distilled spec only alludes to.
	PacingGainStable float64
	PacingGainGain   float64
}

// DefaultConfig returns the canonical parameter set from
// simulation/davis.c and simulation/dumb.c in the original implementation.
func DefaultConfig() Config {
	return Config{
		MinCWND:          4,
		MaxCWND:          1 << 25,
		RecRTTs:          1,
		StableRTTs:       32,
		Gain1RTTs:        2,
		Gain2RTTs:        2,
		DrainRTTs:        1,
		MinIncFactor:     2,
		MaxIncFactor:     128,
		SSIncFactor:      2,
		GainFamily:       FactorGain,
		Reactivity:       2,
		Sensitivity:      0.5,
		MinGainCWND:      4,
		MaxGainFactor:    8,
		GainRate:         1,
		RTTTimeout:       Clock(10e9), // 10s, in Clock's nanosecond-scaled units
		RTTInf:           Clock(10e9),
		PacingGainStable: 1,
		PacingGainGain:   1,
	}
}

// Validate returns a sanitized copy of c, clamping any parameter outside
// its legal range and reporting each clamp via log. It never panics and
// never leaves a parameter able to corrupt controller state (spec
// section 7, "Invalid parameter").
func (c Config) Validate(log *simlog.Logger) Config {
	v := c
	if v.MinCWND < 1 {
		log.ParamClamped("MinCWND", v.MinCWND, Segments(1))
		v.MinCWND = 1
	}
	if v.MaxCWND < v.MinCWND {
		log.ParamClamped("MaxCWND", v.MaxCWND, v.MinCWND)
		v.MaxCWND = v.MinCWND
	}
	if v.MinIncFactor < 1 {
		log.ParamClamped("MinIncFactor", v.MinIncFactor, uint64(1))
		v.MinIncFactor = 1
	}
	if v.MaxIncFactor < v.MinIncFactor {
		log.ParamClamped("MaxIncFactor", v.MaxIncFactor, v.MinIncFactor)
		v.MaxIncFactor = v.MinIncFactor
	}
	if v.SSIncFactor < 1 {
		log.ParamClamped("SSIncFactor", v.SSIncFactor, uint64(1))
		v.SSIncFactor = 1
	}
	if v.Sensitivity < 0 {
		log.ParamClamped("Sensitivity", v.Sensitivity, float64(0))
		v.Sensitivity = 0
	}
	if v.GainFamily == LucasGainFamily && v.Reactivity <= v.Sensitivity {
		log.ParamClamped("Reactivity", v.Reactivity, v.Sensitivity+1)
		v.Reactivity = v.Sensitivity + 1
	}
	if v.StableRTTsMin != 0 || v.StableRTTsMax != 0 {
		if v.StableRTTsMax < v.StableRTTsMin {
			log.ParamClamped("StableRTTsMax", v.StableRTTsMax, v.StableRTTsMin)
			v.StableRTTsMax = v.StableRTTsMin
		}
	}
	if v.RTTTimeout <= 0 {
		log.ParamClamped("RTTTimeout", v.RTTTimeout, c0RTTTimeoutDefault)
		v.RTTTimeout = c0RTTTimeoutDefault
	}
	if v.RTTInf <= 0 {
		log.ParamClamped("RTTInf", v.RTTInf, c0RTTTimeoutDefault)
		v.RTTInf = c0RTTTimeoutDefault
	}
	if v.PacingGainStable <= 0 {
		log.ParamClamped("PacingGainStable", v.PacingGainStable, float64(1))
		v.PacingGainStable = 1
	}
	if v.PacingGainGain < 0 {
		log.ParamClamped("PacingGainGain", v.PacingGainGain, float64(0))
		v.PacingGainGain = 0
	}
	return v
}

const c0RTTTimeoutDefault = Clock(10e9)
