// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package layers

import "github.com/cartelec/cartelec/territory"

// ViewState is the camera of the map.
type ViewState struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch,omitempty"`
	Bearing   float64 `json:"bearing,omitempty"`

	TransitionDuration     int    `json:"transitionDuration,omitempty"`
	TransitionInterpolator string `json:"transitionInterpolator,omitempty"`
	TransitionEasing       string `json:"transitionEasing,omitempty"`
}

// InitialViewState frames metropolitan France.
var InitialViewState = ViewState{
	Longitude: 2.213749,
	Latitude:  46.227638,
	Zoom:      5,
}

// FlyTo centers view on coordinate (longitude, latitude) with the zoom of
// level and a transition. Pitch and bearing are kept.
func (f FlyToStyle) FlyTo(view ViewState, level territory.Level, coordinate [2]float64) ViewState {
	zoom, ok := f.Zoom[level]
	if !ok {
		zoom = f.DefaultZoom
	}

	view.Longitude = coordinate[0]
	view.Latitude = coordinate[1]
	view.Zoom = zoom
	view.TransitionDuration = f.TransitionDuration
	view.TransitionInterpolator = f.Interpolator
	view.TransitionEasing = f.Easing

	return view
}

// FlyTo applies the default fly-to transition.
func FlyTo(view ViewState, level territory.Level, coordinate [2]float64) ViewState {
	return DefaultStyle().FlyTo.FlyTo(view, level, coordinate)
}

// ClickEvent is a click on the map.
type ClickEvent struct {
	Level      territory.Level `json:"level"`
	ViewState  ViewState       `json:"view_state"`
	Coordinate [2]float64      `json:"coordinate"`
	// FeatureID is the clicked feature, empty for a click on empty space.
	FeatureID string `json:"feature_id"`
}

// ClickResult is the state following a click.
type ClickResult struct {
	ViewState ViewState `json:"view_state"`
	Clicked   string    `json:"clicked"`
}

// Click flies to a clicked feature. A click outside any feature clears the
// clicked feature and leaves the view untouched.
func (f FlyToStyle) Click(ev ClickEvent) ClickResult {
	if ev.FeatureID == "" {
		return ClickResult{ViewState: ev.ViewState}
	}

	return ClickResult{
		ViewState: f.FlyTo(ev.ViewState, ev.Level, ev.Coordinate),
		Clicked:   ev.FeatureID,
	}
}
