package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat(t *testing.T) {
	assert.InDelta(t, 1.23, RoundFloat(1.2349, 2), 1e-12)
	assert.InDelta(t, 1.24, RoundFloat(1.2351, 2), 1e-12)
	assert.InDelta(t, -1.23, RoundFloat(-1.2349, 2), 1e-12)
	assert.InDelta(t, 100, RoundFloat(99.999999, 4), 1e-12)
}

func TestNearlyEqual(t *testing.T) {
	assert.True(t, NearlyEqual(1.0, 1.0, 1e-6))
	assert.True(t, NearlyEqual(1.0, 1.0+5e-7, 1e-6))
	assert.False(t, NearlyEqual(1.0, 1.0+2e-6, 1e-6))
	assert.True(t, NearlyEqual(-0.5, -0.5, 1e-6))
}
