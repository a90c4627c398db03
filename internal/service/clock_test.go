package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "08:30", want: 510},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "8am", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseClock(tc.in)
		if tc.wantErr {
			require.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	assert.True(t, overlaps(480, 540, 510, 570))
	assert.True(t, overlaps(510, 570, 480, 540))
	assert.True(t, overlaps(480, 600, 500, 520), "containment overlaps")
	assert.False(t, overlaps(480, 540, 540, 600), "shared boundary does not overlap")
	assert.False(t, overlaps(540, 600, 480, 540))
	assert.False(t, overlaps(480, 540, 600, 660))
}
