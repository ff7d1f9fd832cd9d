package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRate(t *testing.T) {
	tests := map[float64]string{
		0:                        "0 B/s",
		-1:                       "0 B/s",
		512:                      "512 B/s",
		1024:                     "1.00 KB/s",
		15 * 1024:                "15.0 KB/s",
		100 * 1024:               "100 KB/s",
		1.5 * 1024 * 1024:        "1.50 MB/s",
		2.5 * 1024 * 1024 * 1024: "2.50 GB/s",
		3 * (1 << 50):            "3.00 PB/s",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatRate(in), "rate %v", in)
	}
}

func TestFormatETAAndDuration(t *testing.T) {
	tests := []struct {
		in       time.Duration
		eta, dur string
	}{
		{0, "--", "0s"},
		{-time.Second, "--", "0s"},
		{30 * time.Second, "30s", "30s"},
		{1500 * time.Millisecond, "2s", "2s"},
		{90 * time.Second, "1m 30s", "1m 30s"},
		{3*time.Minute + 17*time.Second, "3m 17s", "3m 17s"},
		{time.Hour + time.Minute + time.Second, "1h 01m 01s", "1h 01m 01s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.eta, FormatETA(tt.in), "eta %s", tt.in)
		if tt.in >= 0 {
			assert.Equal(t, tt.dur, FormatDuration(tt.in), "duration %s", tt.in)
		}
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[int64]string{
		0:       "0",
		7:       "7",
		999:     "999",
		1000:    "1,000",
		14302:   "14,302",
		100000:  "100,000",
		1000000: "1,000,000",
		-1000:   "-1,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCount(in), "count %d", in)
	}
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "▪▪▪▪▪□□□□□", ProgressBar(0.5, 10))
	assert.Equal(t, "□□□□□□□□□□", ProgressBar(0, 10))
	assert.Equal(t, "▪▪▪▪▪▪▪▪▪▪", ProgressBar(1.0, 10))
	assert.Equal(t, "▪▪▪▪▪▪▪▪▪▪", ProgressBar(1.5, 10))
	assert.Equal(t, "□□□□", ProgressBar(-0.3, 4))
	assert.Empty(t, ProgressBar(0.5, 0))
}
