// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package energy

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SeedData represents the JSON seed file format.
type SeedData struct {
	Version     string         `json:"version"`
	LastUpdated time.Time      `json:"last_updated"`
	Sites       []*PlottedSite `json:"sites"`
}

// ExportToJSON exports every stored site to a JSON file, unknown power and
// radius written as null. Sites are sorted by category and id to minimize
// diffs when the file is versioned.
func ExportToJSON(repo SiteRepository, filepath string) (int, error) {
	sites, err := repo.ListSites(nil)
	if err != nil {
		return 0, fmt.Errorf("listing sites: %w", err)
	}

	seed := &SeedData{
		Version:     "1.0",
		LastUpdated: time.Now().UTC(),
		Sites:       sites,
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	err = os.WriteFile(filepath, data, 0o600)
	if err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(sites), nil
}

// ReadSeed reads the sites of a JSON seed file.
func ReadSeed(filepath string) ([]*PlottedSite, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	for _, s := range seed.Sites {
		category, err := ParseCategory(string(s.Category))
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", s.ID, err)
		}

		s.Category = category
	}

	return seed.Sites, nil
}

// ImportFromJSON imports sites from a JSON file.
func ImportFromJSON(repo SiteRepository, filepath string) (int, error) {
	sites, err := ReadSeed(filepath)
	if err != nil {
		return 0, err
	}

	if err := repo.BulkInsertSites(sites); err != nil {
		return 0, fmt.Errorf("inserting sites: %w", err)
	}

	return len(sites), nil
}

// SeedIfEmpty seeds the database from a JSON file if no sites exist.
func SeedIfEmpty(repo SiteRepository, filepath string) (bool, int, error) {
	counts, err := repo.CountSites()
	if err != nil {
		return false, 0, fmt.Errorf("counting sites: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	if total > 0 {
		return false, total, nil
	}
	// Database is empty, try to seed
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		// No seed file exists, that's okay
		return false, 0, nil
	}

	imported, err := ImportFromJSON(repo, filepath)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}
