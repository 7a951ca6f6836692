// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

// Package energy models the French energy production sites (nuclear, wind
// and solar), turns the raw registries into plottable records and stores them.
package energy

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cartelec/cartelec/spatial"
	"github.com/uber/h3-go/v4"
)

var errUnknownCategory = errors.New("unknown category")

// Category is a kind of energy production site.
type Category string

const (
	CategoryWind    Category = "wind"
	CategorySolar   Category = "solar"
	CategoryNuclear Category = "nuclear"
)

// Categories lists every category in layer order.
var Categories = []Category{CategoryWind, CategorySolar, CategoryNuclear}

// ParseCategory validates a category name. The French registry names are
// accepted as aliases.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wind", "eolien":
		return CategoryWind, nil
	case "solar", "solaire":
		return CategorySolar, nil
	case "nuclear", "nucleaire":
		return CategoryNuclear, nil
	}

	return "", fmt.Errorf("%w: %q", errUnknownCategory, s)
}

// Position resolution methods.
const (
	MethodOwnCoordinates  = "own_coordinates"
	MethodCommuneCentroid = "commune_centroid"
)

// H3 resolutions stored with each plotted site.
const (
	MinH3Resolution = 1
	MaxH3Resolution = 8
)

// Site is a registry record, as found in the source files.
type Site struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Name        string   `json:"name,omitempty"`
	Operator    string   `json:"operator,omitempty"`
	CommuneCode string   `json:"commune_code,omitempty"`
	// RawPower is the power as written in the registry, a number or a
	// string with a comma decimal separator.
	RawPower any `json:"raw_power,omitempty"`
	// RawLat and RawLng are the site own coordinates when the registry has
	// them, still in their source form.
	RawLat string `json:"raw_lat,omitempty"`
	RawLng string `json:"raw_lng,omitempty"`
}

// PlottedSite is a Site with a resolved position and marker size.
type PlottedSite struct {
	Site
	Point          spatial.Point `json:"point"`
	Power          float64       `json:"power"`
	Radius         float64       `json:"radius"`
	PositionMethod string        `json:"position_method"`
	H3Cells        []int64       `json:"-"` // index 0 is resolution MinH3Resolution
}

// IsPlottable reports whether the site can be drawn: its position and
// radius are finite. A fixed radius category draws sites whose power is
// unknown.
func (s *PlottedSite) IsPlottable() bool {
	return s.Point.IsFinite() && isFinite(s.Radius)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// OptionalFloat returns nil for NaN and infinities, which JSON cannot carry.
func OptionalFloat(f float64) *float64 {
	if !isFinite(f) {
		return nil
	}

	return &f
}

func floatOrNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}

	return *f
}

type plottedSiteAlias PlottedSite

type plottedSiteJSON struct {
	*plottedSiteAlias
	Power  *float64 `json:"power"`
	Radius *float64 `json:"radius"`
}

// MarshalJSON writes unknown power and radius as null.
func (s *PlottedSite) MarshalJSON() ([]byte, error) {
	return json.Marshal(plottedSiteJSON{
		plottedSiteAlias: (*plottedSiteAlias)(s),
		Power:            OptionalFloat(s.Power),
		Radius:           OptionalFloat(s.Radius),
	})
}

// UnmarshalJSON reads null power and radius back as NaN.
func (s *PlottedSite) UnmarshalJSON(data []byte) error {
	v := plottedSiteJSON{plottedSiteAlias: (*plottedSiteAlias)(s)}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	s.Power = floatOrNaN(v.Power)
	s.Radius = floatOrNaN(v.Radius)

	return nil
}

// Plottable filters out the sites that cannot be drawn.
func Plottable(sites []*PlottedSite) []*PlottedSite {
	ret := make([]*PlottedSite, 0, len(sites))

	for _, s := range sites {
		if s.IsPlottable() {
			ret = append(ret, s)
		}
	}

	return ret
}

// H3Cell returns the cell of the site at the given resolution.
func (s *PlottedSite) H3Cell(res int) (int64, error) {
	if res < MinH3Resolution || res > MaxH3Resolution {
		return 0, fmt.Errorf("h3 resolution %d out of range [%d, %d]", res, MinH3Resolution, MaxH3Resolution)
	}

	if len(s.H3Cells) == 0 {
		if err := s.computeH3(); err != nil {
			return 0, err
		}
	}

	return s.H3Cells[res-MinH3Resolution], nil
}

func (s *PlottedSite) computeH3() error {
	cells := make([]int64, MaxH3Resolution-MinH3Resolution+1)

	if s.Point.IsFinite() {
		latLng := h3.NewLatLng(s.Point.Lat, s.Point.Lng)
		for res := MinH3Resolution; res <= MaxH3Resolution; res++ {
			cell, err := h3.LatLngToCell(latLng, res)
			if err != nil {
				return fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
			}

			cells[res-MinH3Resolution] = int64(cell)
		}
	}

	s.H3Cells = cells

	return nil
}
