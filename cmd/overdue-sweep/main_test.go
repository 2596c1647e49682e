package main

import (
	"bytes"
	"errors"
	"testing"

	"libraryhub/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("stdout closed")
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, jobs.SweepResult{Date: "2026-03-10", Escalated: 2, Invoiced: 1}))
	assert.Contains(t, buf.String(), "\n  \"escalated\": 2,")
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])

	err := writeSummary(brokenWriter{}, jobs.SweepResult{})
	assert.ErrorContains(t, err, "stdout closed")
}
