// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointScan(t *testing.T) {
	var p Point

	require.NoError(t, p.Scan(map[string]any{"x": 2.35, "y": 48.85}))
	assert.Equal(t, Point{Lat: 48.85, Lng: 2.35}, p)

	require.NoError(t, p.Scan([]byte("POINT (4.83 45.76)")))
	assert.Equal(t, Point{Lat: 45.76, Lng: 4.83}, p)

	require.NoError(t, p.Scan(nil))
	assert.Equal(t, Point{}, p)

	require.Error(t, p.Scan(map[string]any{"x": "a"}))
	require.Error(t, p.Scan(42))
}

func TestPointIsFinite(t *testing.T) {
	assert.True(t, Point{Lat: 1, Lng: 2}.IsFinite())
	assert.False(t, Point{Lat: math.NaN(), Lng: 2}.IsFinite())
	assert.False(t, Point{Lat: 1, Lng: math.Inf(1)}.IsFinite())
	assert.Equal(t, [2]float64{2, 1}, Point{Lat: 1, Lng: 2}.Position())
}
