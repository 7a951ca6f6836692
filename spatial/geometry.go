// Copyright 2025 The Cartelec Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidCoordinates is returned when a coordinate sequence is empty,
	// is not an array, or holds points without two ordinates.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrUnsupportedGeometry is returned for geometry types without an area.
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
)

// Geometry is a GeoJSON geometry. Coordinates are kept undecoded until
// they are needed, boundary files are large and most features are only
// ever served back as-is.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Bounds is an axis aligned bounding box in degrees.
type Bounds struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// CommuneCenter returns the arithmetic mean of every point of every ring.
//
// Inner rings are averaged together with the outer ring. This is not the
// geometric centroid of the polygon, but it is the position markers have
// always been placed at, so it is kept as is.
func CommuneCenter(coordinates [][][]float64) (Point, error) {
	if len(coordinates) == 0 {
		return Point{}, ErrInvalidCoordinates
	}

	var totalLng, totalLat float64

	numPoints := 0

	for _, ring := range coordinates {
		for _, point := range ring {
			if len(point) < 2 {
				return Point{}, fmt.Errorf("%w: point with %d ordinates", ErrInvalidCoordinates, len(point))
			}

			totalLng += point[0]
			totalLat += point[1]
			numPoints++
		}
	}

	if numPoints == 0 {
		return Point{}, fmt.Errorf("%w: no points", ErrInvalidCoordinates)
	}

	return Point{
		Lng: totalLng / float64(numPoints),
		Lat: totalLat / float64(numPoints),
	}, nil
}

// CommuneCenterJSON is CommuneCenter over undecoded polygon coordinates.
func CommuneCenterJSON(raw json.RawMessage) (Point, error) {
	rings, err := decodeRings(raw)
	if err != nil {
		return Point{}, err
	}

	return CommuneCenter(rings)
}

func decodeRings(raw json.RawMessage) ([][][]float64, error) {
	if !isArray(raw) {
		return nil, ErrInvalidCoordinates
	}

	var rings [][][]float64
	if err := json.Unmarshal(raw, &rings); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCoordinates, err)
	}

	return rings, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)

	return len(trimmed) > 0 && trimmed[0] == '['
}

// Rings flattens the geometry into the list of all its rings. Rings of
// every polygon of a MultiPolygon are returned in order.
func (g Geometry) Rings() ([][][]float64, error) {
	switch g.Type {
	case "Polygon":
		return decodeRings(g.Coordinates)
	case "MultiPolygon":
		if !isArray(g.Coordinates) {
			return nil, ErrInvalidCoordinates
		}

		var polygons [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polygons); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCoordinates, err)
		}

		var rings [][][]float64
		for _, polygon := range polygons {
			rings = append(rings, polygon...)
		}

		return rings, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGeometry, g.Type)
	}
}

// Center returns the CommuneCenter of the geometry.
func (g Geometry) Center() (Point, error) {
	rings, err := g.Rings()
	if err != nil {
		return Point{}, err
	}

	return CommuneCenter(rings)
}

// Bounds returns the bounding box of all the points of the geometry.
func (g Geometry) Bounds() (Bounds, error) {
	rings, err := g.Rings()
	if err != nil {
		return Bounds{}, err
	}

	b := Bounds{
		MinLng: math.Inf(1),
		MinLat: math.Inf(1),
		MaxLng: math.Inf(-1),
		MaxLat: math.Inf(-1),
	}

	seen := false

	for _, ring := range rings {
		for _, point := range ring {
			if len(point) < 2 {
				return Bounds{}, ErrInvalidCoordinates
			}

			b.MinLng = math.Min(b.MinLng, point[0])
			b.MaxLng = math.Max(b.MaxLng, point[0])
			b.MinLat = math.Min(b.MinLat, point[1])
			b.MaxLat = math.Max(b.MaxLat, point[1])
			seen = true
		}
	}

	if !seen {
		return Bounds{}, ErrInvalidCoordinates
	}

	return b, nil
}
