// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package energy

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// PowerScale converts registry power values into the unit used to size
// markers on the map.
const PowerScale = 100

// NormalizePower converts a registry power value into a marker radius.
//
// Strings use a comma as decimal separator; only the first comma is
// replaced, then the longest numeric prefix is parsed. Text that does not
// start with a number yields NaN, which is returned as is: callers that
// serialize the value must filter it out.
func NormalizePower(v any) float64 {
	return ParseLocaleFloat(v) * PowerScale
}

// ParseLocaleFloat parses a number that may be written with a comma as
// decimal separator. It returns NaN when v holds no number.
func ParseLocaleFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint64:
		return float64(val)
	case json.Number:
		return parseFloatPrefix(strings.Replace(val.String(), ",", ".", 1))
	case string:
		return parseFloatPrefix(strings.Replace(val, ",", ".", 1))
	case nil:
		return math.NaN()
	default:
		return parseFloatPrefix(strings.Replace(fmt.Sprint(val), ",", ".", 1))
	}
}

// parseFloatPrefix parses the longest prefix of s that is a decimal
// literal, after skipping leading white space. "12.5 MW" is 12.5, "MW" is NaN.
func parseFloatPrefix(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}

		return math.Inf(1)
	}

	digits := 0

	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}

	if i < len(s) && s[i] == '.' {
		i++

		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}

	if digits == 0 {
		return math.NaN()
	}

	// An exponent only counts when at least one digit follows it.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}

		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}

			i = j
		}
	}

	// The prefix is a valid literal, the only possible error is a range
	// error and ParseFloat already returns ±Inf for it.
	f, _ := strconv.ParseFloat(s[:i], 64)

	return f
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ConventionMode tells how a category turns raw power into a marker radius.
type ConventionMode string

const (
	// ConventionScaled sizes markers with NormalizePower.
	ConventionScaled ConventionMode = "scaled"
	// ConventionRaw keeps the registry value unscaled and draws every
	// marker with the same fixed radius.
	ConventionRaw ConventionMode = "raw"
)

// PowerConvention is the per category sizing rule. Wind and nuclear
// registries have always been scaled while the solar registry is drawn at a
// fixed radius; both behaviors are kept until the data model is settled.
type PowerConvention struct {
	Mode        ConventionMode `json:"mode" yaml:"convention"`
	FixedRadius float64        `json:"fixed_radius,omitempty" yaml:"fixed_radius"`
}

// Validate checks the convention is usable.
func (c PowerConvention) Validate() error {
	switch c.Mode {
	case ConventionScaled:
		return nil
	case ConventionRaw:
		if c.FixedRadius <= 0 {
			return fmt.Errorf("raw convention needs a positive fixed radius, got %v", c.FixedRadius)
		}

		return nil
	default:
		return fmt.Errorf("unknown power convention %q", c.Mode)
	}
}

// Apply returns the power and the marker radius of a raw registry value.
func (c PowerConvention) Apply(raw any) (power, radius float64) {
	if c.Mode == ConventionRaw {
		return ParseLocaleFloat(raw), c.FixedRadius
	}

	power = NormalizePower(raw)

	return power, power
}

// DefaultConventions are the sizing rules used when no style file overrides them.
func DefaultConventions() map[Category]PowerConvention {
	return map[Category]PowerConvention{
		CategoryWind:    {Mode: ConventionScaled},
		CategorySolar:   {Mode: ConventionRaw, FixedRadius: 1000},
		CategoryNuclear: {Mode: ConventionScaled},
	}
}
