// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package sim implements the discrete-event network simulator that drives
// cca.Controller implementations against a configurable bottleneck link.
package sim

import "github.com/heistp/ccphase/cca"

// FlowID identifies a flow within a single simulation run.
type FlowID int

// Packet is a single simulated segment. It is owned by exactly one queue
// at a time: a flow's network queue, the bottleneck queue, or the loss
// sink (spec section 3).
type Packet struct {
	Flow     FlowID
	SendTime cca.Clock
}
