// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

// Package layers assembles the layers drawn by the map: the boundaries of the
// active level and one scatter layer per energy category.
package layers

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/cartelec/cartelec/energy"
	"github.com/cartelec/cartelec/territory"
	"github.com/goccy/go-yaml"
)

//go:embed styles.yaml
var defaultStyles []byte

// Color is an RGBA color, each channel in [0, 255].
type Color []int

// Validate checks the color has four channels in range.
func (c Color) Validate() error {
	if len(c) != 4 {
		return fmt.Errorf("color %v: expected 4 channels, got %d", []int(c), len(c))
	}

	for _, v := range c {
		if v < 0 || v > 255 {
			return fmt.Errorf("color %v: channel %d out of range", []int(c), v)
		}
	}

	return nil
}

// BoundaryStyle styles the boundary layer of every level.
type BoundaryStyle struct {
	LayerIDs           map[territory.Level]string `yaml:"layer_ids"`
	FillColor          Color                      `yaml:"fill_color"`
	HoverFillColor     Color                      `yaml:"hover_fill_color"`
	LineColor          Color                      `yaml:"line_color"`
	LineWidthMinPixels float64                    `yaml:"line_width_min_pixels"`
	LineWidthMaxPixels float64                    `yaml:"line_width_max_pixels"`
}

// CategoryStyle styles the scatter layer of an energy category.
type CategoryStyle struct {
	LayerID string                 `yaml:"layer_id"`
	Color   Color                  `yaml:"color"`
	Power   energy.PowerConvention `yaml:"power"`
}

// FlyToStyle configures the transition played when a feature is clicked.
type FlyToStyle struct {
	Zoom               map[territory.Level]float64 `yaml:"zoom"`
	DefaultZoom        float64                     `yaml:"default_zoom"`
	TransitionDuration int                         `yaml:"transition_duration"`
	Interpolator       string                      `yaml:"interpolator"`
	Easing             string                      `yaml:"easing"`
}

// Style is the content of a style file.
type Style struct {
	Boundaries BoundaryStyle                     `yaml:"boundaries"`
	Categories map[energy.Category]CategoryStyle `yaml:"categories"`
	FlyTo      FlyToStyle                        `yaml:"fly_to"`
}

// DefaultStyle returns the embedded style.
func DefaultStyle() *Style {
	s, err := ParseStyle(defaultStyles)
	if err != nil {
		panic(fmt.Sprintf("embedded style: %v", err))
	}

	return s
}

// DefaultStyleYAML returns the embedded style file, a starting point for
// custom styles.
func DefaultStyleYAML() []byte {
	return append([]byte(nil), defaultStyles...)
}

// ParseStyle decodes a complete style file.
func ParseStyle(data []byte) (*Style, error) {
	var s Style
	if err := yaml.UnmarshalWithOptions(data, &s, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("parsing style: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// LoadStyle reads a style file. An empty path returns the default style.
func LoadStyle(path string) (*Style, error) {
	if path == "" {
		return DefaultStyle(), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - path is provided by admin
	if err != nil {
		return nil, fmt.Errorf("reading style: %w", err)
	}

	return ParseStyle(data)
}

// Validate checks every color, layer id and power convention.
func (s *Style) Validate() error {
	var errs []error

	b := s.Boundaries
	for name, c := range map[string]Color{
		"fill_color":       b.FillColor,
		"hover_fill_color": b.HoverFillColor,
		"line_color":       b.LineColor,
	} {
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("boundaries %s: %w", name, err))
		}
	}

	for _, level := range territory.Levels {
		if b.LayerIDs[level] == "" {
			errs = append(errs, fmt.Errorf("boundaries: missing layer id for %s", level))
		}
	}

	for _, category := range energy.Categories {
		cs, ok := s.Categories[category]
		if !ok {
			errs = append(errs, fmt.Errorf("missing style for category %s", category))

			continue
		}

		if cs.LayerID == "" {
			errs = append(errs, fmt.Errorf("category %s: missing layer id", category))
		}

		if err := cs.Color.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("category %s: %w", category, err))
		}

		if err := cs.Power.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("category %s: %w", category, err))
		}
	}

	for category := range s.Categories {
		canonical, err := energy.ParseCategory(string(category))
		if err != nil {
			errs = append(errs, err)

			continue
		}

		if canonical != category {
			errs = append(errs, fmt.Errorf("category %q: use %q", category, canonical))
		}
	}

	if s.FlyTo.DefaultZoom <= 0 {
		errs = append(errs, errors.New("fly_to: default_zoom must be positive"))
	}

	return errors.Join(errs...)
}

// Conventions returns the power convention of each category.
func (s *Style) Conventions() map[energy.Category]energy.PowerConvention {
	ret := make(map[energy.Category]energy.PowerConvention, len(s.Categories))
	for category, cs := range s.Categories {
		ret[category] = cs.Power
	}

	return ret
}
