// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommuneCenter(t *testing.T) {
	tests := []struct {
		name   string
		coords [][][]float64
		want   Point
	}{
		{
			name:   "two points",
			coords: [][][]float64{{{2, 48}, {4, 50}}},
			want:   Point{Lng: 3, Lat: 49},
		},
		{
			name:   "single point",
			coords: [][][]float64{{{5.5, 45.25}}},
			want:   Point{Lng: 5.5, Lat: 45.25},
		},
		{
			name: "inner ring is averaged with outer ring",
			coords: [][][]float64{
				{{0, 0}, {4, 0}, {4, 4}, {0, 4}},
				{{1, 1}, {1, 1}},
			},
			want: Point{Lng: 10.0 / 6, Lat: 10.0 / 6},
		},
		{
			name:   "extra ordinates are ignored",
			coords: [][][]float64{{{2, 48, 100}, {4, 50, 200}}},
			want:   Point{Lng: 3, Lat: 49},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CommuneCenter(tc.coords)
			require.NoError(t, err)
			assert.InDelta(t, tc.want.Lng, got.Lng, 1e-12)
			assert.InDelta(t, tc.want.Lat, got.Lat, 1e-12)
		})
	}
}

func TestCommuneCenterIgnoresRingGrouping(t *testing.T) {
	points := [][]float64{{2.1, 48.3}, {2.4, 48.9}, {3.0, 47.7}, {1.9, 48.1}, {2.2, 48.0}}

	together, err := CommuneCenter([][][]float64{points})
	require.NoError(t, err)

	split, err := CommuneCenter([][][]float64{points[:2], points[2:3], points[3:]})
	require.NoError(t, err)

	assert.Equal(t, together, split)
}

func TestCommuneCenterInvalid(t *testing.T) {
	tests := []struct {
		name   string
		coords [][][]float64
	}{
		{"nil", nil},
		{"empty", [][][]float64{}},
		{"empty ring", [][][]float64{{}}},
		{"short point", [][][]float64{{{2}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CommuneCenter(tc.coords)
			require.ErrorIs(t, err, ErrInvalidCoordinates)
		})
	}
}

func TestCommuneCenterJSON(t *testing.T) {
	got, err := CommuneCenterJSON(json.RawMessage(`[[[2,48],[4,50]]]`))
	require.NoError(t, err)
	assert.Equal(t, Point{Lng: 3, Lat: 49}, got)

	for _, raw := range []string{`[]`, `{}`, `"abc"`, `42`, `null`, ``, `[["x"]]`} {
		t.Run(raw, func(t *testing.T) {
			_, err := CommuneCenterJSON(json.RawMessage(raw))
			require.ErrorIs(t, err, ErrInvalidCoordinates)
		})
	}
}

func TestGeometryCenter(t *testing.T) {
	multi := Geometry{
		Type:        "MultiPolygon",
		Coordinates: json.RawMessage(`[[[[0,0],[2,0]]],[[[4,4],[6,4]]]]`),
	}

	got, err := multi.Center()
	require.NoError(t, err)
	assert.Equal(t, Point{Lng: 3, Lat: 2}, got)

	_, err = Geometry{Type: "Point", Coordinates: json.RawMessage(`[1,2]`)}.Center()
	require.ErrorIs(t, err, ErrUnsupportedGeometry)

	_, err = Geometry{Type: "MultiPolygon", Coordinates: json.RawMessage(`{}`)}.Center()
	require.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestGeometryBounds(t *testing.T) {
	g := Geometry{
		Type:        "Polygon",
		Coordinates: json.RawMessage(`[[[2,48],[4,50],[3,47]]]`),
	}

	b, err := g.Bounds()
	require.NoError(t, err)
	assert.Equal(t, Bounds{MinLng: 2, MinLat: 47, MaxLng: 4, MaxLat: 50}, b)

	_, err = Geometry{Type: "Polygon", Coordinates: json.RawMessage(`[[]]`)}.Bounds()
	require.ErrorIs(t, err, ErrInvalidCoordinates)
}
