package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRate(t *testing.T) {
	cases := []struct {
		name     string
		present  int
		total    int
		expected float64
	}{
		{name: "zero total", present: 0, total: 0, expected: 0.0},
		{name: "half", present: 1, total: 2, expected: 50.0},
		{name: "third rounds down", present: 1, total: 3, expected: 33.33},
		{name: "two thirds rounds up", present: 2, total: 3, expected: 66.67},
		{name: "full", present: 5, total: 5, expected: 100.0},
		{name: "midpoint rounds away from zero", present: 49, total: 800, expected: 6.13},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Rate(tc.present, tc.total))
		})
	}
}
