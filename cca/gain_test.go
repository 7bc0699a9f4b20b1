// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package cca

import (
	"math/rand"
	"testing"

	"github.com/heistp/ccphase/internal/simlog"
	"github.com/stretchr/testify/assert"
)

func TestFactorGainCWNDMatchesFormula(t *testing.T) {
	cfg := DefaultConfig().Validate(simlog.Discard())
	g, clamped := factorGainCWND(cfg, 100, 2)
	assert.Equal(t, uint64(2), clamped)
	assert.Equal(t, Segments(150), g, "(2+1)*100/2 = 150")
}

func TestFactorGainCWNDClampsIncFactorIntoRange(t *testing.T) {
	cfg := DefaultConfig().Validate(simlog.Discard())
	_, clamped := factorGainCWND(cfg, 100, 0)
	assert.Equal(t, cfg.MinIncFactor, clamped, "an inc_factor below MinIncFactor must clamp up")

	_, clamped = factorGainCWND(cfg, 100, 1_000_000)
	assert.Equal(t, cfg.MaxIncFactor, clamped, "an inc_factor above MaxIncFactor must clamp down")
}

func TestFactorGainCWNDLowerBoundedByBDPPlusMinCWND(t *testing.T) {
	cfg := DefaultConfig().Validate(simlog.Discard())
	cfg.MinIncFactor = 1 << 20
	cfg.MaxIncFactor = 1 << 20
	g, _ := factorGainCWND(cfg, 10, 1<<20)
	assert.GreaterOrEqual(t, uint64(g), uint64(10)+uint64(cfg.MinCWND))
}

func TestSSGainCWNDAtDefaultMatchesThreeHalves(t *testing.T) {
	cfg := DefaultConfig().Validate(simlog.Discard())
	assert.Equal(t, Segments(150), ssGainCWND(cfg, 100), "default SS_INC_FACTOR=2 gives 3*bdp/2")
}

func TestSSGainCWNDLowerBoundedByBDPPlusMinCWND(t *testing.T) {
	cfg := DefaultConfig().Validate(simlog.Discard())
	cfg.SSIncFactor = 1 << 20
	g := ssGainCWND(cfg, 10)
	assert.GreaterOrEqual(t, uint64(g), uint64(10)+uint64(cfg.MinCWND))
}

func TestLucasGainCWNDClampedByFloor(t *testing.T) {
	cfg := DefaultConfig().Validate(simlog.Discard())
	cfg.GainFamily = LucasGainFamily
	cfg.Reactivity = 2
	cfg.Sensitivity = 0.5
	cfg.MinGainCWND = 1000

	g := lucasGainCWND(cfg, 1, 1)
	assert.GreaterOrEqual(t, uint64(g), uint64(cfg.MinGainCWND), "gain must never fall below MinGainCWND")
}

func TestLucasGainCWNDGrowsWithBDP(t *testing.T) {
	cfg := DefaultConfig().Validate(simlog.Discard())
	cfg.GainFamily = LucasGainFamily
	cfg.Reactivity = 2
	cfg.Sensitivity = 0.5

	small := lucasGainCWND(cfg, 100, 100)
	large := lucasGainCWND(cfg, 1000, 1000)
	assert.Greater(t, large, small)
}

func TestStableRTTsFallsBackWithoutRNG(t *testing.T) {
	cfg := DefaultConfig().Validate(simlog.Discard())
	cfg.StableRTTsMin = 8
	cfg.StableRTTsMax = 64
	assert.Equal(t, cfg.StableRTTs, stableRTTs(cfg, nil), "nil rng must fall back to the fixed StableRTTs")
}

func TestStableRTTsFallsBackWithoutRange(t *testing.T) {
	cfg := DefaultConfig().Validate(simlog.Discard())
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, cfg.StableRTTs, stableRTTs(cfg, rng), "StableRTTsMin/Max unset must fall back to the fixed StableRTTs")
}

func TestStableRTTsDrawsWithinConfiguredRange(t *testing.T) {
	cfg := DefaultConfig().Validate(simlog.Discard())
	cfg.StableRTTsMin = 8
	cfg.StableRTTsMax = 16
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		v := stableRTTs(cfg, rng)
		assert.GreaterOrEqual(t, v, cfg.StableRTTsMin)
		assert.LessOrEqual(t, v, cfg.StableRTTsMax)
	}
}
