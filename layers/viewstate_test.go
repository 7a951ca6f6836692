// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package layers

import (
	"testing"

	"github.com/cartelec/cartelec/territory"
	"github.com/google/go-cmp/cmp"
)

func TestFlyTo(t *testing.T) {
	start := ViewState{Longitude: 2, Latitude: 46, Zoom: 5, Pitch: 30, Bearing: 10}
	coordinate := [2]float64{4.39, 45.43}

	tests := []struct {
		level territory.Level
		zoom  float64
	}{
		{territory.LevelCommune, 12},
		{territory.LevelDepartement, 9},
		{territory.LevelRegion, 8},
		{"", 8},
	}

	for _, tc := range tests {
		t.Run(string(tc.level), func(t *testing.T) {
			want := ViewState{
				Longitude:              4.39,
				Latitude:               45.43,
				Zoom:                   tc.zoom,
				Pitch:                  30,
				Bearing:                10,
				TransitionDuration:     1000,
				TransitionInterpolator: "FlyToInterpolator",
				TransitionEasing:       "easeCubic",
			}

			if diff := cmp.Diff(want, FlyTo(start, tc.level, coordinate)); diff != "" {
				t.Errorf("FlyTo() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClick(t *testing.T) {
	fly := DefaultStyle().FlyTo

	got := fly.Click(ClickEvent{
		Level:      territory.LevelDepartement,
		ViewState:  InitialViewState,
		Coordinate: [2]float64{4.5, 45.7},
		FeatureID:  "42",
	})

	if got.Clicked != "42" {
		t.Errorf("expected clicked feature 42, got %q", got.Clicked)
	}

	if got.ViewState.Zoom != 9 || got.ViewState.Longitude != 4.5 {
		t.Errorf("unexpected view state %+v", got.ViewState)
	}

	// Clicking empty space clears the selection and keeps the camera.
	got = fly.Click(ClickEvent{Level: territory.LevelDepartement, ViewState: InitialViewState})

	want := ClickResult{ViewState: InitialViewState}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Click() mismatch (-want +got):\n%s", diff)
	}
}
