package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeLimit(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected int
	}{
		{"nil", nil, 25},
		{"positive int", 10, 10},
		{"zero", 0, 25},
		{"negative", -3, 25},
		{"int64", int64(7), 7},
		{"int64 overflow", int64(math.MaxInt64), 25},
		{"integral float", 12.0, 12},
		{"fractional float", 2.5, 25},
		{"NaN", math.NaN(), 25},
		{"infinity", math.Inf(1), 25},
		{"negative infinity", math.Inf(-1), 25},
		{"numeric string", " 40 ", 40},
		{"garbage string", "abc", 25},
		{"bool", true, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SafeLimit(tt.input, 25))
		})
	}
}

func TestLimitParam_BindsInteger(t *testing.T) {
	assert.Equal(t, int64(100), limitParam(0, 100))
	assert.Equal(t, int64(3), limitParam(3, 100))
}
