package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampComponent(t *testing.T) {
	assert.Equal(t, 0.0, ClampComponent(-5, MaxCA1))
	assert.Equal(t, MaxCA1, ClampComponent(25, MaxCA1))
	assert.Equal(t, 17.5, ClampComponent(17.5, MaxCA1))
}

func TestTotalClampsEachComponent(t *testing.T) {
	// every component over its max collapses to 100
	assert.Equal(t, 100.0, Total(99, 99, 99, 99))
	assert.Equal(t, 0.0, Total(-1, -1, -1, -1))
	assert.Equal(t, 92.0, Total(18, 20, 9, 45))
}

func TestFromTotal(t *testing.T) {
	cases := []struct {
		total float64
		want  string
	}{
		{100, "A"},
		{92, "A"},
		{90, "A"},
		{89.9, "B"},
		{80, "B"},
		{75, "C"},
		{60, "D"},
		{55, "E"},
		{49.9, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FromTotal(tc.total), "total %v", tc.total)
	}
}
