package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLegDuration(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"600s", 10},
		{"1234s", 1234.0 / 60},
		{"90", 1.5},
		{"2 mins", 2},
		{"1 min", 1},
		{"1 hour 5 mins", 65},
		{"2 hours 30 mins", 150},
		{"30 secs", 0.5},
		{"1 h 30 m", 90},
		{" 45 mins ", 45},
	}

	for _, tc := range cases {
		got, err := ParseLegDuration(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, "input %q", tc.in)
	}
}

func TestParseLegDurationRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{"", "abc", "5 lightyears", "mins 5", "1 hour 5"} {
		_, err := ParseLegDuration(in)
		assert.Error(t, err, "input %q", in)
	}
}
