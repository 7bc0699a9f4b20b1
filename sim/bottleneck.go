// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package sim

import (
	"math/rand"

	"github.com/heistp/ccphase/cca"
	"github.com/heistp/ccphase/units"
)

// bottleneck is the single shared link every flow's packets queue at
// before DEPARTURE. It is grounded on the service-time timer pattern of
// the teacher's AQM/iface plumbing (aqm.go, iface.go), simplified to a
// plain FIFO with no marking: ECN/SCE congestion signaling is out of
// scope (spec section 1, Non-goals).
//
// Capacity and service rate are both functions of simulated time so a
// run can script a sudden rate drop (scenario S4) without changing the
// driver.
type bottleneck struct {
	q   *packetQueue
	rng *rand.Rand

	nextDeparture cca.Clock
}

func newBottleneck(rng *rand.Rand) *bottleneck {
	return &bottleneck{q: newPacketQueue(), rng: rng}
}

// arrive attempts to admit p to the bottleneck at time now, given the
// current buffer capacity in packets and MSS in bytes. It returns false
// if the packet was lost, either to the probabilistic loss draw or
// because the queue was full (spec section 4.3, "On ARRIVAL").
func (b *bottleneck) arrive(now cca.Clock, p Packet, bufSize int, lossProb float64, mss units.Bytes, maxBW units.Bitrate) bool {
	if b.q.Len() >= bufSize || (lossProb > 0 && b.rng.Float64() < lossProb) {
		return false
	}
	wasEmpty := b.q.Len() == 0
	b.q.Enqueue(p)
	if wasEmpty {
		b.scheduleDeparture(now, mss, maxBW)
	}
	return true
}

func (b *bottleneck) scheduleDeparture(now cca.Clock, mss units.Bytes, maxBW units.Bitrate) {
	b.nextDeparture = now + cca.Clock(units.TransferTime(maxBW, mss))
}

// depart pops the head of the bottleneck queue at its scheduled
// departure time and, if more packets remain, schedules the next one.
func (b *bottleneck) depart(now cca.Clock, mss units.Bytes, maxBW units.Bitrate) (Packet, bool) {
	p, ok := b.q.Dequeue()
	if !ok {
		return Packet{}, false
	}
	if b.q.Len() > 0 {
		b.scheduleDeparture(now, mss, maxBW)
	}
	return p, true
}

func (b *bottleneck) empty() bool {
	return b.q.Len() == 0
}
