// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package energy

import (
	"math"

	"github.com/cartelec/cartelec/spatial"
)

// CommuneLookup returns the representative point of a commune given its
// INSEE code.
type CommuneLookup interface {
	Centroid(code string) (spatial.Point, bool)
}

// ResolveMetrics counts how the sites of a registry were placed.
type ResolveMetrics struct {
	Total           int `json:"total"`
	OwnCoordinates  int `json:"own_coordinates"`
	CommuneCentroid int `json:"commune_centroid"`
	Unresolved      int `json:"unresolved"`
	InvalidPower    int `json:"invalid_power"`
}

// Merge combines the metrics from another ResolveMetrics instance into this one.
func (m *ResolveMetrics) Merge(o *ResolveMetrics) *ResolveMetrics {
	if o == nil {
		return m
	}

	m.Total += o.Total
	m.OwnCoordinates += o.OwnCoordinates
	m.CommuneCentroid += o.CommuneCentroid
	m.Unresolved += o.Unresolved
	m.InvalidPower += o.InvalidPower

	return m
}

// Resolver places registry sites on the map and sizes their markers.
type Resolver struct {
	communes    CommuneLookup
	conventions map[Category]PowerConvention
}

// NewResolver creates a resolver. Categories missing from conventions use
// DefaultConventions.
func NewResolver(communes CommuneLookup, conventions map[Category]PowerConvention) *Resolver {
	merged := DefaultConventions()
	for category, c := range conventions {
		merged[category] = c
	}

	return &Resolver{communes: communes, conventions: merged}
}

// Resolve returns the plotted version of every site that can be placed.
//
// A site's own coordinates win when both parse; otherwise the centroid of
// its commune is used. Sites with neither are dropped, never returned
// with an empty position. Power values that do not parse are kept as NaN
// and counted in InvalidPower.
func (r *Resolver) Resolve(sites []Site) ([]*PlottedSite, ResolveMetrics) {
	metrics := ResolveMetrics{Total: len(sites)}
	ret := make([]*PlottedSite, 0, len(sites))

	for _, site := range sites {
		point, method, ok := r.position(site)
		if !ok {
			metrics.Unresolved++

			continue
		}

		switch method {
		case MethodOwnCoordinates:
			metrics.OwnCoordinates++
		case MethodCommuneCentroid:
			metrics.CommuneCentroid++
		}

		power, radius := r.conventions[site.Category].Apply(site.RawPower)
		if math.IsNaN(power) || math.IsNaN(radius) {
			metrics.InvalidPower++
		}

		plotted := &PlottedSite{
			Site:           site,
			Point:          point,
			Power:          power,
			Radius:         radius,
			PositionMethod: method,
		}
		// Points are finite here, computing cells cannot fail.
		_ = plotted.computeH3()

		ret = append(ret, plotted)
	}

	return ret, metrics
}

func (r *Resolver) position(site Site) (spatial.Point, string, bool) {
	if site.RawLat != "" && site.RawLng != "" {
		p := spatial.Point{
			Lat: ParseLocaleFloat(site.RawLat),
			Lng: ParseLocaleFloat(site.RawLng),
		}
		if p.IsFinite() {
			return p, MethodOwnCoordinates, true
		}
	}

	if site.CommuneCode == "" || r.communes == nil {
		return spatial.Point{}, "", false
	}

	p, ok := r.communes.Centroid(site.CommuneCode)
	if !ok {
		return spatial.Point{}, "", false
	}

	return p, MethodCommuneCentroid, true
}
