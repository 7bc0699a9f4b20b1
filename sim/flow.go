// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package sim

import (
	"github.com/heistp/ccphase/cca"
	"github.com/heistp/ccphase/units"
)

// flow holds one simulated sender's network queue, send-time bookkeeping,
// and embedded congestion controller (spec section 3: "Controller
// state (per flow)" plus the driver's per-flow counters from section
// 4.3).
type flow struct {
	id  FlowID
	ctl cca.Controller
	net *packetQueue // per-flow network queue, between SEND and ARRIVAL
	mss units.Bytes

	nextSendTime cca.Clock
	inflight     int
	delivered    uint64
	losses       uint64
	bytesSent    units.Bytes

	// lastRTT is the RTT of the flow's most recently delivered packet,
	// kept for the report Sink since ctl exposes no last-RTT accessor.
	lastRTT cca.Clock
}

func newFlow(id FlowID, ctl cca.Controller, mss units.Bytes, startTime cca.Clock) *flow {
	f := &flow{
		id:           id,
		ctl:          ctl,
		net:          newPacketQueue(),
		mss:          mss,
		nextSendTime: startTime,
	}
	f.ctl.Init(startTime, mss)
	return f
}

// sendRate returns the rate, in bits/second, at which this flow may
// currently send: min(appRate, pacingRate) when pacing is active (spec
// section 4.3, "send_rate := min(app_rate, pacing_rate if nonzero)").
func (f *flow) sendRate(appRate units.Bitrate) units.Bitrate {
	if pr := f.ctl.PacingRate(); pr > 0 {
		pacing := units.Bitrate(8 * pr)
		if pacing < appRate {
			return pacing
		}
	}
	return appRate
}

func (f *flow) cwnd() cca.Segments {
	return f.ctl.CWND()
}
