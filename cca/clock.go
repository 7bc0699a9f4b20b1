// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package cca

import (
	"fmt"
	"time"
)

// Clock represents simulated time, or a simulated time interval.
type Clock time.Duration

// ClockInfinity is used as an initial min_rtt before any sample has been
// taken.
const ClockInfinity = Clock(time.Duration(1<<63 - 1))

// Seconds returns the Clock value in fractional seconds.
func (c Clock) Seconds() float64 {
	return time.Duration(c).Seconds()
}

func (c Clock) String() string {
	return fmt.Sprintf("%.6f", c.Seconds())
}

func clockMin(a, b Clock) Clock {
	if a < b {
		return a
	}
	return b
}

func clockMax(a, b Clock) Clock {
	if a > b {
		return a
	}
	return b
}
