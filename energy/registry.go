// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package energy

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cartelec/cartelec/utils/textutils"
)

// RegistryFormat names the fields of a registry file. Each list holds the
// candidate field names, the first one present wins.
type RegistryFormat struct {
	ID       []string
	Name     []string
	Operator []string
	Commune  []string
	Power    []string
	Lat      []string
	Lng      []string

	// SwapAxes reads longitudes from the Lat fields and latitudes from the
	// Lng fields. The wind registry stores them that way round.
	SwapAxes bool
}

var communeFields = []string{"code_insee", "codeinsee", "insee", "com_insee", "code_commune", "commune_code"}

// Formats of the bundled registries.
var registryFormats = map[Category]RegistryFormat{
	CategoryWind: {
		ID:       []string{"id", "id_parc", "code_parc"},
		Name:     []string{"nom_parc", "nom", "name"},
		Operator: []string{"exploitant", "operateur", "developpeur"},
		Commune:  communeFields,
		Power:    []string{"puissance", "puissance_mw", "puissance_totale"},
		Lat:      []string{"latitude"},
		Lng:      []string{"longitude"},
		SwapAxes: true,
	},
	CategorySolar: {
		ID:       []string{"id", "identifiant", "code"},
		Name:     []string{"nom_installation", "nom", "name"},
		Operator: []string{"exploitant", "operateur"},
		Commune:  communeFields,
		Power:    []string{"puissance_crete", "puissance"},
		Lat:      []string{"lat", "latitude"},
		Lng:      []string{"lon", "lng", "longitude"},
	},
	CategoryNuclear: {
		ID:       []string{"id", "code"},
		Name:     []string{"nom", "site", "centrale", "name"},
		Operator: []string{"exploitant", "operateur"},
		Commune:  communeFields,
		Power:    []string{"puissance", "puissance_nette", "puissance_mw"},
		Lat:      []string{"latitude", "lat"},
		Lng:      []string{"longitude", "lon"},
	},
}

// FormatFor returns the registry format of a category.
func FormatFor(category Category) (RegistryFormat, error) {
	f, ok := registryFormats[category]
	if !ok {
		return RegistryFormat{}, fmt.Errorf("%w: %q", errUnknownCategory, category)
	}

	return f, nil
}

func field(record map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := record[key]; ok && v != nil {
			return v, true
		}
	}

	return nil, false
}

func stringField(record map[string]any, keys []string) string {
	v, ok := field(record, keys)
	if !ok {
		return ""
	}

	s, _ := textutils.AnyToString(v)

	return strings.TrimSpace(s)
}

// DecodeRegistry parses a registry: a JSON array of flat records.
func DecodeRegistry(category Category, r io.Reader) ([]Site, error) {
	format, err := FormatFor(category)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("parsing %s registry: %w", category, err)
	}

	sites := make([]Site, 0, len(records))

	for i, record := range records {
		if record == nil {
			continue
		}

		site := Site{
			ID:          stringField(record, format.ID),
			Category:    category,
			Name:        stringField(record, format.Name),
			Operator:    stringField(record, format.Operator),
			CommuneCode: normalizeCommuneCode(stringField(record, format.Commune)),
			RawLat:      stringField(record, format.Lat),
			RawLng:      stringField(record, format.Lng),
		}

		if format.SwapAxes {
			site.RawLat, site.RawLng = site.RawLng, site.RawLat
		}

		if power, ok := field(record, format.Power); ok {
			site.RawPower = power
		}

		if site.ID == "" {
			site.ID = fmt.Sprintf("%s-%05d", category, i)
		}

		sites = append(sites, site)
	}

	return sites, nil
}

// LoadRegistry reads a registry file.
func LoadRegistry(category Category, path string) ([]Site, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by admin
	if err != nil {
		return nil, fmt.Errorf("opening %s registry: %w", category, err)
	}
	defer f.Close()

	return DecodeRegistry(category, f)
}

// INSEE codes are five characters; numeric codes lose their leading zero
// when a registry stores them as numbers ("1001" for "01001").
func normalizeCommuneCode(code string) string {
	if code == "" {
		return ""
	}

	if len(code) < 5 && strings.Trim(code, "0123456789") == "" {
		return strings.Repeat("0", 5-len(code)) + code
	}

	return strings.ToUpper(code)
}
