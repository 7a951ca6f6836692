// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/cartelec/cartelec/energy"
	"github.com/cartelec/cartelec/layers"
	"github.com/cartelec/cartelec/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the map layers over HTTP",
	Long: `Serves the layers, boundaries and sites used by the map.

Sites are read from the database, seeded from sites.json in the data directory
when it is empty. Without a database content nor a seed file, the registries of
the data directory are resolved in memory.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		style, err := loadStyle()
		if err != nil {
			return err
		}

		atlas, err := loadAtlas()
		if err != nil {
			return err
		}

		db, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		seeded, n, err := energy.SeedIfEmpty(repo, seedPath())
		if err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}

		var sites energy.SiteSource = repo

		switch {
		case seeded:
			log.Printf("Seeded the database with %d sites from %s", n, seedPath())
		case n > 0:
			log.Printf("Serving %d stored sites", n)
		default:
			log.Println("The database is empty, resolving the registries in memory")

			if sites, err = resolveSites(atlas, style); err != nil {
				return err
			}
		}

		srv := server.NewServer(atlas, sites, layers.NewAssembler(atlas, sites, style))

		fmt.Println("🗺️  Map server starting...")
		fmt.Printf("📍 Listening on http://%s\n", serveAddr)

		return srv.Run(serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(
		&serveAddr,
		"addr",
		"localhost:8080",
		"Address to listen on",
	)
}
