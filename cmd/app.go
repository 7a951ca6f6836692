// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cartelec/cartelec/dataset"
	"github.com/cartelec/cartelec/energy"
	"github.com/cartelec/cartelec/layers"
	"github.com/cartelec/cartelec/territory"
	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
)

const (
	dbFile    = "cartelec.duckdb"
	sitesFile = "sites.json"
)

func openRepository() (*sql.DB, energy.SiteRepository, error) {
	if err := os.MkdirAll(options.DbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(options.DbPath, dbFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := energy.NewSiteRepository(db)
	if err := repo.CreateSchema(); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("creating schema: %w", err), db.Close())
	}

	return db, repo, nil
}

// seedPath is the seed file of the data directory.
func seedPath() string {
	return filepath.Join(options.DataDir, sitesFile)
}

// present keeps the paths that exist, logging the others.
func present[K comparable](paths map[K]string) map[K]string {
	ret := make(map[K]string, len(paths))

	for k, path := range paths {
		if _, err := os.Stat(path); err != nil {
			log.Printf("Skipping %v: %s not found, run 'cartelec data fetch'", k, path)

			continue
		}

		ret[k] = path
	}

	return ret
}

func loadAtlas() (*territory.Atlas, error) {
	atlas, err := territory.LoadAtlas(present(dataset.Boundaries(options.DataDir)))
	if err != nil {
		return nil, fmt.Errorf("loading boundaries: %w", err)
	}

	for _, level := range territory.Levels {
		if n := atlas.Level(level).Len(); n > 0 {
			log.Printf("Loaded %d %s boundaries", n, level)
		}
	}

	return atlas, nil
}

func loadStyle() (*layers.Style, error) {
	style, err := layers.LoadStyle(options.StylePath)
	if err != nil {
		return nil, fmt.Errorf("loading style: %w", err)
	}

	return style, nil
}

// resolveSites reads the registries of the data directory and places their
// sites on the commune centroids of atlas.
func resolveSites(atlas *territory.Atlas, style *layers.Style) (*energy.Catalog, error) {
	registries := make(map[energy.Category][]energy.Site)

	var errs []error

	for category, path := range present(dataset.Registries(options.DataDir)) {
		sites, err := energy.LoadRegistry(category, path)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		registries[category] = sites
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if atlas.Communes() == nil {
		log.Println("Communes are not loaded, only sites with their own coordinates are placed")
	}

	catalog := energy.NewCatalog(energy.NewResolver(atlas.Communes(), style.Conventions()), registries)

	for _, category := range energy.Categories {
		m := catalog.Metrics(category)
		if m.Total == 0 {
			continue
		}

		log.Printf(
			"Resolved %s sites - %d total, %d own coordinates, %d commune centroid, %d unresolved, %d invalid power",
			category,
			m.Total,
			m.OwnCoordinates,
			m.CommuneCentroid,
			m.Unresolved,
			m.InvalidPower,
		)
	}

	return catalog, nil
}
