// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heistp/ccphase/cca"
	"github.com/heistp/ccphase/sim"
)

func TestSinkSingleFlowHeaderUsesReducedColumns(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf, nil)
	require.NoError(t, s.WriteHeader(1))

	header := strings.Split(strings.TrimSpace(buf.String()), ",")
	assert.Equal(t, []string{"time", "rtt", "cwnd", "rate", "losses",
		"max_rate", "min_rtt", "bdp", "mode"}, header)
}

func TestSinkMultiFlowHeaderIncludesFlowID(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf, nil)
	require.NoError(t, s.WriteHeader(2))

	header := strings.Split(strings.TrimSpace(buf.String()), ",")
	assert.Equal(t, "flow_id", header[0])
	assert.Contains(t, header, "bytes_sent")
}

func TestSinkRecordWritesOneRowPerCall(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf, nil)
	require.NoError(t, s.WriteHeader(1))

	rec := sim.FlowRecord{
		Flow: 0,
		RTT:  cca.Clock(30e6),
		CWND: 42,
		Mode: cca.ModeStable,
	}
	require.NoError(t, s.Record(cca.Clock(1e9), rec))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "expected a header row and one data row")
}

func TestSinkRecordAccumulatesHistogramPerFlow(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf, nil)
	require.NoError(t, s.WriteHeader(1))

	for i := 0; i < 5; i++ {
		rec := sim.FlowRecord{Flow: 0, RTT: cca.Clock(30e6), CWND: cca.Segments(10 + i)}
		require.NoError(t, s.Record(cca.Clock(int64(i)*1e9), rec))
	}

	h, ok := s.hist[0]
	require.True(t, ok)
	assert.EqualValues(t, 5, h.rtt.TotalCount())
	assert.Len(t, h.series, 5)
}
