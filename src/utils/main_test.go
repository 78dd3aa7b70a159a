package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "2024-03-05 07:08:09", FormatTimestamp(ts))
}

func TestFormatTimestampKeepsLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Brussels")
	if err != nil {
		t.Skip("timezone database not available")
	}
	ts := time.Date(2024, 12, 31, 23, 59, 58, 0, time.UTC).In(loc)
	assert.Equal(t, "2025-01-01 00:59:58", FormatTimestamp(ts))
}

func TestRandStringBytesMaskImpr(t *testing.T) {
	s := RandStringBytesMaskImpr(12)
	assert.Len(t, s, 12)
	for _, c := range s {
		assert.Contains(t, letterBytes, string(c))
	}
}
