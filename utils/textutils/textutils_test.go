// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package textutils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerAsciiFolding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello world"},
		{"  Spaces  ", "spaces"},
		{"Éveux", "eveux"},
		{"Île-de-France", "ile-de-france"},
		{"Crème Brûlée", "creme brulee"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, LowerASCIIFolding(tc.input))
		})
	}
}

func TestSearchKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Saint-Étienne", "saint etienne"},
		{"SAINT  ETIENNE", "saint etienne"},
		{"L'Haÿ-les-Roses", "l hay les roses"},
		{"Provence-Alpes-Côte d’Azur", "provence alpes cote d azur"},
		{"   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, SearchKey(tc.input))
		})
	}
}

func TestAnyToString(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
		ok       bool
	}{
		{"nil", nil, "", false},
		{"string", "01001", "01001", true},
		{"json.Number", json.Number("12,5"), "12,5", true},
		{"float64", 1300.5, "1300.5", true},
		{"integral float64", 75056.0, "75056", true},
		{"int", 42, "42", true},
		{"bool", true, "true", true},
		{"slice", []any{"a"}, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, ok := AnyToString(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, res)
		})
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{123, "123"},
		{1234, "1,234"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-1, "-1"},
		{-1234, "-1,234"},
		{-1234567, "-1,234,567"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatInt(tc.input))
		})
	}
}
