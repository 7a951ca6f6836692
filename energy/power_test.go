// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package energy

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePower(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"comma decimal", "12,5", 1250},
		{"integer", 3, 300},
		{"float", 2.5, 250},
		{"period decimal", "0.75", 75},
		{"json number", json.Number("4,2"), 420},
		{"trailing unit", "12,5 MW", 1250},
		{"leading spaces", "  7", 700},
		{"only first comma replaced", "1,234,5", 123.4},
		{"negative", "-1,5", -150},
		{"exponent", "1e3", 100000},
		{"dangling exponent", "2e", 200},
		{"leading dot", ",5", 50},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, NormalizePower(tc.input), 1e-9)
		})
	}
}

func TestNormalizePowerNaN(t *testing.T) {
	for _, input := range []any{"", "abc", "MW 12", ",", "-", nil, json.Number("")} {
		got := NormalizePower(input)
		assert.True(t, math.IsNaN(got), "NormalizePower(%#v) = %v, want NaN", input, got)
	}
}

func TestParseLocaleFloatInfinity(t *testing.T) {
	assert.True(t, math.IsInf(ParseLocaleFloat("Infinity"), 1))
	assert.True(t, math.IsInf(ParseLocaleFloat("-Infinity"), -1))
	assert.True(t, math.IsInf(ParseLocaleFloat("1e999"), 1))
	assert.InDelta(t, 48.8566, ParseLocaleFloat("48,8566"), 1e-12)
}

func TestPowerConvention(t *testing.T) {
	scaled := PowerConvention{Mode: ConventionScaled}
	power, radius := scaled.Apply("12,5")
	assert.InDelta(t, 1250, power, 1e-9)
	assert.InDelta(t, 1250, radius, 1e-9)

	raw := PowerConvention{Mode: ConventionRaw, FixedRadius: 1000}
	power, radius = raw.Apply("36,5")
	assert.InDelta(t, 36.5, power, 1e-9)
	assert.InDelta(t, 1000, radius, 1e-9)

	assert.NoError(t, scaled.Validate())
	assert.NoError(t, raw.Validate())
	assert.Error(t, PowerConvention{Mode: ConventionRaw}.Validate())
	assert.Error(t, PowerConvention{Mode: "log"}.Validate())

	for category, convention := range DefaultConventions() {
		assert.NoError(t, convention.Validate(), category)
	}
}
