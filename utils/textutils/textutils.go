// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils holds small string helpers shared by the loaders and the CLI.
package textutils

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// SearchKey folds a place name so that "Saint-Étienne", "saint etienne" and
// "SAINT ETIENNE" compare equal. Hyphens and apostrophes become spaces and
// runs of spaces collapse into one.
func SearchKey(s string) string {
	s = LowerASCIIFolding(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '-', '\'', '’', '_':
			return ' '
		}

		return r
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// AnyToString converts a decoded JSON scalar to its string form.
// Numbers keep their textual form so "01001" style codes survive decoding
// through json.Number.
func AnyToString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// FormatInt formats an integer with commas for human readability.
func FormatInt(n int64) string {
	in := strconv.FormatInt(n, 10)

	numOfDigits := len(in)
	if n < 0 {
		numOfDigits-- // First character is the - sign (not a digit)
	}

	numOfCommas := (numOfDigits - 1) / 3

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}

		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}
