// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cartelec/cartelec/energy"
	"github.com/cartelec/cartelec/territory"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		expectedName string
		expectErr    error
	}{
		{
			name:         "NumericMatch",
			query:        "10",
			expectedName: "Parcs eoliens",
		},
		{
			name:         "StringExactMatch",
			query:        "Contours communes",
			expectedName: "Contours communes",
		},
		{
			name:         "CaseInsensitivePrefixMatch",
			query:        "INSTALL",
			expectedName: "Installations solaires",
		},
		{
			name:      "NoMatch",
			query:     "xxx",
			expectErr: errDatasetNotFound,
		},
		{
			name:      "UnknownID",
			query:     "99",
			expectErr: errDatasetNotFound,
		},
		{
			name:      "MultipleMatches",
			query:     "Contours",
			expectErr: errMultipleMatches,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Find(tc.query)
			if tc.expectErr != nil {
				if !errors.Is(err, tc.expectErr) {
					t.Fatalf("expected error %v, got %v", tc.expectErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.Name != tc.expectedName {
				t.Errorf("expected %q, got %q", tc.expectedName, got.Name)
			}
		})
	}
}

func TestFindEmptyQuery(t *testing.T) {
	if _, err := Find(""); err == nil {
		t.Error("expected an error for an empty query")
	}
}

func TestDatasetsAreValid(t *testing.T) {
	ids := make(map[int]bool)

	err := Each(func(ref Ref) error {
		if ids[ref.ID] {
			t.Errorf("duplicated dataset ID %d", ref.ID)
		}

		ids[ref.ID] = true

		return ref.Validate()
	})
	if err != nil {
		t.Fatalf("invalid dataset: %v", err)
	}
}

func TestEachStopsOnError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0

	err := Each(func(Ref) error {
		calls++

		return stop
	})

	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("Each() = %v after %d calls, want stop after 1", err, calls)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		ref  Ref
	}{
		{"NoName", Ref{File: "a.json", Kind: KindRegistry, Category: energy.CategoryWind}},
		{"NoFile", Ref{Name: "a", Kind: KindRegistry, Category: energy.CategoryWind}},
		{"BadKind", Ref{Name: "a", File: "a.json", Kind: "tiles"}},
		{"BadLevel", Ref{Name: "a", File: "a.json", Kind: KindBoundaries, Level: "canton"}},
		{"BadCategory", Ref{Name: "a", File: "a.json", Kind: KindRegistry, Category: "hydro"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.ref.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestBoundariesAndRegistries(t *testing.T) {
	dir := t.TempDir()

	boundaries := Boundaries(dir)
	if len(boundaries) != len(territory.Levels) {
		t.Fatalf("expected %d boundary files, got %d", len(territory.Levels), len(boundaries))
	}

	if got, want := boundaries[territory.LevelCommune], filepath.Join(dir, "communes.geojson"); got != want {
		t.Errorf("commune boundaries at %q, want %q", got, want)
	}

	registries := Registries(dir)
	if len(registries) != len(energy.Categories) {
		t.Fatalf("expected %d registries, got %d", len(energy.Categories), len(registries))
	}

	if got, want := registries[energy.CategoryWind], filepath.Join(dir, "EOLIEN.json"); got != want {
		t.Errorf("wind registry at %q, want %q", got, want)
	}
}
