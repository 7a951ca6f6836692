// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset lists the datasets the map is built from and downloads
// them into the data directory.
package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cartelec/cartelec/energy"
	"github.com/cartelec/cartelec/territory"
)

var (
	errMultipleMatches = errors.New("multiple matches")
	errDatasetNotFound = errors.New("dataset not found")
)

// Kind tells boundaries from site registries.
type Kind string

const (
	KindBoundaries Kind = "boundaries"
	KindRegistry   Kind = "registry"
)

// Ref is a reference to a dataset file.
type Ref struct {
	ID       int             // ID of the dataset
	Name     string          // Name of the dataset
	Kind     Kind            // Boundaries or site registry
	File     string          // File name inside the data directory
	URL      string          // Where to download it from, empty for bundled files
	Level    territory.Level // Boundary level, for KindBoundaries
	Category energy.Category // Site category, for KindRegistry
}

// Validate checks if the Ref has all required fields.
func (r *Ref) Validate() error {
	if r.Name == "" {
		return errors.New("dataset reference: name must not be empty")
	}

	if r.File == "" {
		return fmt.Errorf("dataset reference %q: file must not be empty", r.Name)
	}

	switch r.Kind {
	case KindBoundaries:
		if _, err := territory.ParseLevel(string(r.Level)); err != nil {
			return fmt.Errorf("dataset reference %q: %w", r.Name, err)
		}
	case KindRegistry:
		if _, err := energy.ParseCategory(string(r.Category)); err != nil {
			return fmt.Errorf("dataset reference %q: %w", r.Name, err)
		}
	default:
		return fmt.Errorf("dataset reference %q: unknown kind %q", r.Name, r.Kind)
	}

	return nil
}

// Path returns the location of the dataset inside dataDir.
func (r *Ref) Path(dataDir string) string {
	return filepath.Join(dataDir, r.File)
}

const franceGeoJSON = "https://raw.githubusercontent.com/gregoiredavid/france-geojson/master/"

// All available datasets.
var datasets = []Ref{
	{
		ID:    1,
		Name:  "Contours regions",
		Kind:  KindBoundaries,
		File:  "regions.geojson",
		URL:   franceGeoJSON + "regions.geojson",
		Level: territory.LevelRegion,
	},
	{
		ID:    2,
		Name:  "Contours departements",
		Kind:  KindBoundaries,
		File:  "departements.geojson",
		URL:   franceGeoJSON + "departements.geojson",
		Level: territory.LevelDepartement,
	},
	{
		ID:    3,
		Name:  "Contours communes",
		Kind:  KindBoundaries,
		File:  "communes.geojson",
		URL:   franceGeoJSON + "communes.geojson",
		Level: territory.LevelCommune,
	},
	{
		ID:       10,
		Name:     "Parcs eoliens",
		Kind:     KindRegistry,
		File:     "EOLIEN.json",
		Category: energy.CategoryWind,
	},
	{
		ID:       11,
		Name:     "Installations solaires",
		Kind:     KindRegistry,
		File:     "SOLAR.json",
		Category: energy.CategorySolar,
	},
	{
		ID:       12,
		Name:     "Centrales nucleaires",
		Kind:     KindRegistry,
		File:     "NUCLEAIRE.json",
		Category: energy.CategoryNuclear,
	},
}

// Find locates a dataset by its ID or name.
// If q represents a number, it searches by ID; otherwise, it searches by a
// case insensitive name prefix.
// Returns an error if no match or multiple matches are found.
func Find(q string) (*Ref, error) {
	if q == "" {
		return nil, errors.New("empty search query")
	}

	var predicate func(r *Ref) bool
	if n, err := strconv.Atoi(q); err == nil {
		predicate = func(r *Ref) bool {
			return n == r.ID
		}
	} else {
		predicate = func(r *Ref) bool {
			return len(r.Name) >= len(q) &&
				strings.EqualFold(r.Name[:len(q)], q)
		}
	}

	var found *Ref

	for i := range datasets {
		if !predicate(&datasets[i]) {
			continue
		}

		if found != nil {
			return nil, fmt.Errorf("%w for %q: %q, %q", errMultipleMatches, q, found.Name, datasets[i].Name)
		}

		ref := datasets[i]
		found = &ref
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %q", errDatasetNotFound, q)
	}

	return found, nil
}

// Each applies the given callback function to each dataset reference.
// It stops iteration and returns the error if the callback returns an error.
func Each(callback func(Ref) error) error {
	for i := range datasets {
		if err := callback(datasets[i]); err != nil {
			return err
		}
	}

	return nil
}

// Boundaries returns the boundary files of dataDir, by level.
func Boundaries(dataDir string) map[territory.Level]string {
	ret := make(map[territory.Level]string)

	for i := range datasets {
		if datasets[i].Kind == KindBoundaries {
			ret[datasets[i].Level] = datasets[i].Path(dataDir)
		}
	}

	return ret
}

// Registries returns the registry files of dataDir, by category.
func Registries(dataDir string) map[energy.Category]string {
	ret := make(map[energy.Category]string)

	for i := range datasets {
		if datasets[i].Kind == KindRegistry {
			ret[datasets[i].Category] = datasets[i].Path(dataDir)
		}
	}

	return ret
}
