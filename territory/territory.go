// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

// Package territory loads the French administrative boundaries (regions,
// departements and communes) and answers lookups on them.
package territory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/cartelec/cartelec/spatial"
	"github.com/cartelec/cartelec/utils/textutils"
)

var errUnknownLevel = errors.New("unknown level")

// Level is an administrative division level.
type Level string

const (
	LevelRegion      Level = "region"
	LevelDepartement Level = "departement"
	LevelCommune     Level = "commune"
)

// Levels lists the levels from the coarsest to the finest.
var Levels = []Level{LevelRegion, LevelDepartement, LevelCommune}

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, nil
		}
	}

	return "", fmt.Errorf("%w: %q", errUnknownLevel, s)
}

// Property names that carry the identifier, in order of preference.
// Communes are identified by their INSEE code.
var idProperties = []string{"ID", "id", "code", "insee", "INSEE_COM", "code_insee"}

var nameProperties = []string{"nom", "NOM", "name", "NAME", "libelle"}

// Feature is a boundary polygon with its properties.
type Feature struct {
	Type       string           `json:"type"`
	Properties map[string]any   `json:"properties"`
	Geometry   spatial.Geometry `json:"geometry"`

	centroidOnce sync.Once
	centroid     spatial.Point
	centroidErr  error
}

// ID returns the identifier of the feature, or "" if it has none.
func (f *Feature) ID() string {
	return f.property(idProperties)
}

// Name returns the display name of the feature.
func (f *Feature) Name() string {
	return f.property(nameProperties)
}

func (f *Feature) property(keys []string) string {
	for _, key := range keys {
		if s, ok := textutils.AnyToString(f.Properties[key]); ok && s != "" {
			return s
		}
	}

	return ""
}

// Centroid returns the CommuneCenter of the feature geometry. It is
// computed on first access and cached, boundaries never change once loaded.
func (f *Feature) Centroid() (spatial.Point, error) {
	f.centroidOnce.Do(func() {
		f.centroid, f.centroidErr = f.Geometry.Center()
	})

	return f.centroid, f.centroidErr
}

// Collection is the set of boundaries of one level.
type Collection struct {
	Level    Level
	Features []*Feature

	byID      map[string]*Feature
	searchKey []string // parallel to Features
}

// Decode parses a GeoJSON FeatureCollection.
func Decode(level Level, r io.Reader) (*Collection, error) {
	var geoJSON struct {
		Type     string     `json:"type"`
		Features []*Feature `json:"features"`
	}

	if err := json.NewDecoder(r).Decode(&geoJSON); err != nil {
		return nil, fmt.Errorf("parsing %s GeoJSON: %w", level, err)
	}

	if geoJSON.Type != "" && geoJSON.Type != "FeatureCollection" {
		return nil, fmt.Errorf("parsing %s GeoJSON: expected a FeatureCollection, got %q", level, geoJSON.Type)
	}

	c := &Collection{
		Level:     level,
		Features:  make([]*Feature, 0, len(geoJSON.Features)),
		byID:      make(map[string]*Feature, len(geoJSON.Features)),
		searchKey: make([]string, 0, len(geoJSON.Features)),
	}

	for _, f := range geoJSON.Features {
		if f == nil {
			continue
		}

		if id := f.ID(); id != "" {
			c.byID[id] = f
		}

		c.Features = append(c.Features, f)
		c.searchKey = append(c.searchKey, textutils.SearchKey(f.Name()))
	}

	return c, nil
}

// Load reads a GeoJSON boundary file.
func Load(level Level, path string) (*Collection, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by admin
	if err != nil {
		return nil, fmt.Errorf("opening %s boundaries: %w", level, err)
	}
	defer f.Close()

	return Decode(level, f)
}

// Len returns the number of features.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}

	return len(c.Features)
}

// Lookup finds a feature by identifier.
func (c *Collection) Lookup(id string) (*Feature, bool) {
	if c == nil {
		return nil, false
	}

	f, ok := c.byID[strings.TrimSpace(id)]

	return f, ok
}

// Centroid returns the centroid of the feature with the given identifier.
// Features whose geometry has no usable centroid are reported as missing.
func (c *Collection) Centroid(id string) (spatial.Point, bool) {
	f, ok := c.Lookup(id)
	if !ok {
		return spatial.Point{}, false
	}

	p, err := f.Centroid()
	if err != nil {
		return spatial.Point{}, false
	}

	return p, true
}

// Search returns up to limit features whose folded name contains the folded
// query. Exact matches come first, then prefix matches, then the rest.
func (c *Collection) Search(query string, limit int) []*Feature {
	if c == nil {
		return nil
	}

	q := textutils.SearchKey(query)
	if q == "" {
		return nil
	}

	type match struct {
		feature *Feature
		rank    int
		key     string
	}

	var matches []match

	for i, key := range c.searchKey {
		switch {
		case key == q:
			matches = append(matches, match{c.Features[i], 0, key})
		case strings.HasPrefix(key, q):
			matches = append(matches, match{c.Features[i], 1, key})
		case strings.Contains(key, q):
			matches = append(matches, match{c.Features[i], 2, key})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}

		return matches[i].key < matches[j].key
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	ret := make([]*Feature, len(matches))
	for i, m := range matches {
		ret[i] = m.feature
	}

	return ret
}

// Atlas groups the collections of every level.
type Atlas struct {
	collections map[Level]*Collection
}

// NewAtlas builds an atlas from already loaded collections.
func NewAtlas(collections ...*Collection) *Atlas {
	a := &Atlas{collections: make(map[Level]*Collection, len(collections))}
	for _, c := range collections {
		if c != nil {
			a.collections[c.Level] = c
		}
	}

	return a
}

// LoadAtlas reads the boundary files of every level given in paths.
// Missing levels are reported together.
func LoadAtlas(paths map[Level]string) (*Atlas, error) {
	var (
		collections []*Collection
		errs        []error
	)

	for _, level := range Levels {
		path, ok := paths[level]
		if !ok {
			continue
		}

		c, err := Load(level, path)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		collections = append(collections, c)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return NewAtlas(collections...), nil
}

// Level returns the collection of the given level, nil if not loaded.
func (a *Atlas) Level(l Level) *Collection {
	if a == nil {
		return nil
	}

	return a.collections[l]
}

// Communes returns the commune collection, the INSEE code lookup used to
// place energy sites.
func (a *Atlas) Communes() *Collection {
	return a.Level(LevelCommune)
}
