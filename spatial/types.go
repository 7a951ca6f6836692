// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"
	"math"
)

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Position returns the point in [longitude, latitude] order, the order
// map layers and GeoJSON expect.
func (p Point) Position() [2]float64 {
	return [2]float64{p.Lng, p.Lat}
}

// IsFinite reports whether both ordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value any) error {
	if value == nil {
		p.Lat, p.Lng = 0, 0

		return nil
	}

	switch v := value.(type) {
	case []byte:
		_, err := fmt.Sscanf(string(v), "POINT (%f %f)", &p.Lng, &p.Lat)

		return err
	case string:
		_, err := fmt.Sscanf(v, "POINT (%f %f)", &p.Lng, &p.Lat)

		return err
	case map[string]any:
		// STRUCT(x DOUBLE, y DOUBLE) columns come back as maps.
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		p.Lng = x
		p.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}
