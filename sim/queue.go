// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package sim

import "github.com/heistp/ccphase/queue"

// packetQueue is a FIFO of Packet, used identically for a flow's network
// queue, the bottleneck queue, and the loss sink.
type packetQueue = queue.FIFO[Packet]

func newPacketQueue() *packetQueue {
	return queue.New[Packet]()
}
