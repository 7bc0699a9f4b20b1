// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package sim

import (
	"fmt"
	"log"

	"github.com/heistp/ccphase/cca"
)

// tracef logs one simulated event at cheap stdlib log.Printf cost,
// adapted from the teacher's logf (log.go). Structured zap logging
// (internal/simlog) is reserved for operator-facing diagnostics; this
// path runs on every SEND/ARRIVAL/DEPARTURE and shouldn't pay for
// structured fields when tracing is off.
func tracef(now cca.Clock, flow FlowID, format string, a ...any) {
	log.Printf("%s [flow %d]: %s", now, flow, fmt.Sprintf(format, a...))
}
