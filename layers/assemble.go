// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package layers

import (
	"fmt"
	"sync"

	"github.com/cartelec/cartelec/energy"
	"github.com/cartelec/cartelec/spatial"
	"github.com/cartelec/cartelec/territory"
)

// Layer types, named after the map widget layer classes.
const (
	TypeGeoJSON     = "GeoJsonLayer"
	TypeScatterplot = "ScatterplotLayer"
)

// State is the interaction state the layers depend on.
type State struct {
	Level   territory.Level `json:"level" form:"level"`
	Hovered string          `json:"hovered,omitempty" form:"hovered"`
	Clicked string          `json:"clicked,omitempty" form:"clicked"`
}

// Layer is either a *BoundaryLayer or a *PointLayer.
type Layer interface {
	LayerID() string
}

// BoundaryFeature is the per feature styling of a boundary layer. Geometry
// is served separately, it does not change with the interaction state.
type BoundaryFeature struct {
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	Centroid  *spatial.Point `json:"centroid,omitempty"`
	FillColor Color          `json:"fillColor"`
}

// BoundaryLayer draws the boundaries of the active level.
type BoundaryLayer struct {
	ID                 string              `json:"id"`
	Type               string              `json:"type"`
	Level              territory.Level     `json:"level"`
	DataURL            string              `json:"dataUrl"`
	Stroked            bool                `json:"stroked"`
	Filled             bool                `json:"filled"`
	Pickable           bool                `json:"pickable"`
	LineColor          Color               `json:"getLineColor"`
	LineWidthMinPixels float64             `json:"lineWidthMinPixels"`
	LineWidthMaxPixels float64             `json:"lineWidthMaxPixels"`
	UpdateTriggers     map[string][]string `json:"updateTriggers"`
	Features           []BoundaryFeature   `json:"features"`
}

// LayerID implements Layer.
func (l *BoundaryLayer) LayerID() string { return l.ID }

// ScatterPoint is a plotted site as drawn by a scatter layer.
type ScatterPoint struct {
	ID             string     `json:"id"`
	Name           string     `json:"name,omitempty"`
	Operator       string     `json:"operator,omitempty"`
	CommuneCode    string     `json:"commune_code,omitempty"`
	Position       [2]float64 `json:"position"` // longitude, latitude
	Power          *float64   `json:"power"` // nil when the registry value is not a number
	Radius         float64    `json:"radius"`
	PositionMethod string     `json:"position_method"`
}

// PointLayer draws the sites of an energy category.
type PointLayer struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Category energy.Category `json:"category"`
	Pickable bool            `json:"pickable"`
	Color    Color           `json:"getFillColor"`
	Data     []ScatterPoint  `json:"data"`
	// Dropped counts the sites that could not be drawn: their radius is not
	// a number.
	Dropped int `json:"dropped"`
}

// LayerID implements Layer.
func (l *PointLayer) LayerID() string { return l.ID }

// Assembler builds the layers for an interaction state. Point layers and
// boundary features only depend on the datasets and are built once; only
// the boundary fill colors are recomputed on every call.
type Assembler struct {
	atlas *territory.Atlas
	sites energy.SiteSource
	style *Style

	mu         sync.Mutex
	points     map[energy.Category]*PointLayer
	boundaries map[territory.Level][]BoundaryFeature
}

// NewAssembler creates an assembler. A nil style uses DefaultStyle.
func NewAssembler(atlas *territory.Atlas, sites energy.SiteSource, style *Style) *Assembler {
	if style == nil {
		style = DefaultStyle()
	}

	return &Assembler{
		atlas:      atlas,
		sites:      sites,
		style:      style,
		points:     make(map[energy.Category]*PointLayer),
		boundaries: make(map[territory.Level][]BoundaryFeature),
	}
}

// Style returns the style used by the assembler.
func (a *Assembler) Style() *Style {
	return a.style
}

// Invalidate drops the cached layers, for instance after sites are reloaded.
func (a *Assembler) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.points = make(map[energy.Category]*PointLayer)
	a.boundaries = make(map[territory.Level][]BoundaryFeature)
}

// Assemble returns the boundary layer of the active level, absent when the
// level is unknown or not loaded, followed by one point layer per category.
func (a *Assembler) Assemble(state State) ([]Layer, error) {
	var ret []Layer

	if boundary := a.BoundaryLayer(state); boundary != nil {
		ret = append(ret, boundary)
	}

	for _, category := range energy.Categories {
		layer, err := a.PointLayer(category)
		if err != nil {
			return nil, err
		}

		ret = append(ret, layer)
	}

	return ret, nil
}

// BoundaryLayer returns the boundary layer of the state level with the
// hovered feature highlighted, or nil.
func (a *Assembler) BoundaryLayer(state State) *BoundaryLayer {
	style := a.style.Boundaries

	id, ok := style.LayerIDs[state.Level]
	if !ok {
		return nil
	}

	base, ok := a.boundaryFeatures(state.Level)
	if !ok {
		return nil
	}

	features := make([]BoundaryFeature, len(base))
	for i, f := range base {
		f.FillColor = style.FillColor
		if state.Hovered != "" && f.ID == state.Hovered {
			f.FillColor = style.HoverFillColor
		}

		features[i] = f
	}

	triggers := []string{state.Hovered, state.Clicked}

	return &BoundaryLayer{
		ID:                 id,
		Type:               TypeGeoJSON,
		Level:              state.Level,
		DataURL:            "/api/boundaries/" + string(state.Level),
		Stroked:            true,
		Filled:             true,
		Pickable:           true,
		LineColor:          style.LineColor,
		LineWidthMinPixels: style.LineWidthMinPixels,
		LineWidthMaxPixels: style.LineWidthMaxPixels,
		UpdateTriggers: map[string][]string{
			"getFillColor": triggers,
			"getLineColor": triggers,
		},
		Features: features,
	}
}

func (a *Assembler) boundaryFeatures(level territory.Level) ([]BoundaryFeature, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if features, ok := a.boundaries[level]; ok {
		return features, true
	}

	collection := a.atlas.Level(level)
	if collection == nil {
		return nil, false
	}

	features := make([]BoundaryFeature, 0, collection.Len())

	for _, f := range collection.Features {
		bf := BoundaryFeature{ID: f.ID(), Name: f.Name()}
		if p, err := f.Centroid(); err == nil {
			bf.Centroid = &p
		}

		features = append(features, bf)
	}

	a.boundaries[level] = features

	return features, true
}

// PointLayer returns the scatter layer of a category. Sites whose radius is
// NaN are left out and counted in Dropped.
func (a *Assembler) PointLayer(category energy.Category) (*PointLayer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if layer, ok := a.points[category]; ok {
		return layer, nil
	}

	style, ok := a.style.Categories[category]
	if !ok {
		return nil, fmt.Errorf("no style for category %q", category)
	}

	var sites []*energy.PlottedSite

	if a.sites != nil {
		var err error

		sites, err = a.sites.Sites(category)
		if err != nil {
			return nil, fmt.Errorf("loading %s sites: %w", category, err)
		}
	}

	layer := &PointLayer{
		ID:       style.LayerID,
		Type:     TypeScatterplot,
		Category: category,
		Pickable: true,
		Color:    style.Color,
		Data:     make([]ScatterPoint, 0, len(sites)),
	}

	for _, s := range sites {
		if !s.IsPlottable() {
			layer.Dropped++

			continue
		}

		layer.Data = append(layer.Data, ScatterPoint{
			ID:             s.ID,
			Name:           s.Name,
			Operator:       s.Operator,
			CommuneCode:    s.CommuneCode,
			Position:       s.Point.Position(),
			Power:          energy.OptionalFloat(s.Power),
			Radius:         s.Radius,
			PositionMethod: s.PositionMethod,
		})
	}

	a.points[category] = layer

	return layer, nil
}
