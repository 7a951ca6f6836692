// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/cartelec/cartelec/dataset"
	"github.com/cartelec/cartelec/energy"
	"github.com/cartelec/cartelec/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage the datasets and the site database",
}

var dataListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the datasets",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		a, b, c := strings.Repeat("─", 2), strings.Repeat("─", 22), strings.Repeat("─", 24)
		fmt.Println("Available datasets:")
		fmt.Printf("╭─%2s─┬─%-22s─┬─%-24s─┬─%-7s─╮\n", a, b, c, strings.Repeat("─", 7))
		fmt.Printf("│ %2s │ %-22s │ %-24s │ %-7s │\n", "Id", "Name", "File", "Present")
		fmt.Printf("├─%2s─┼─%-22s─┼─%-24s─┼─%-7s─┤\n", a, b, c, strings.Repeat("─", 7))
		err := dataset.Each(func(ref dataset.Ref) error {
			status := "no"
			if _, err := os.Stat(ref.Path(options.DataDir)); err == nil {
				status = "yes"
			}
			fmt.Printf("│ %2d │ %-22s │ %-24s │ %-7s │\n", ref.ID, ref.Name, ref.File, status)

			return nil
		})
		fmt.Printf("╰─%2s─┴─%-22s─┴─%-24s─┴─%-7s─╯\n", a, b, c, strings.Repeat("─", 7))

		return err
	},
}

var fetchOptions = &dataset.ClientOptions{}

func datasetArg(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
		return err
	}

	if len(args) > 0 {
		if _, err := dataset.Find(args[0]); err != nil {
			return err
		}
	}

	return nil
}

var dataFetchCmd = &cobra.Command{
	Use:   "fetch [dataset]",
	Short: "Download the datasets missing from the data directory",
	Args:  datasetArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		fetchOptions.DataDir = options.DataDir
		fetchOptions.UserAgent = fmt.Sprintf("cartelec/%s", Version)
		c := dataset.NewClient(fetchOptions)

		if len(args) == 0 {
			return c.FetchAll(ctx)
		}

		ref, err := dataset.Find(args[0])
		if err != nil {
			return err
		}

		return c.Fetch(ctx, *ref)
	},
}

var dataLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Resolve the site registries and store the plotted sites",
	Long: `Reads the boundaries and the site registries of the data directory, places
every site on its own coordinates or on the centroid of its commune, and
replaces the content of the site database.`,
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

		catalog, err := resolveSites(atlas, style)
		if err != nil {
			return err
		}

		db, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		sites := catalog.All()

		n, err := storeSites(repo, sites)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Stored %s sites, %s drawable\n",
			textutils.FormatInt(int64(n)),
			textutils.FormatInt(int64(len(energy.Plottable(sites)))))

		return nil
	},
}

// storeSites replaces the stored sites, all or nothing.
func storeSites(repo energy.SiteRepository, sites []*energy.PlottedSite) (int, error) {
	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(sites),
			progressbar.OptionSetDescription("Storing sites"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	err := repo.ReplaceSites(sites, func(n int) {
		if bar != nil {
			_ = bar.Set(n)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("storing sites: %w", err)
	}

	if bar != nil {
		_ = bar.Finish()
	}

	return len(sites), nil
}

var dataStoreFile string

var dataStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Export the stored sites to a file",
	Long:  `Exports all plotted sites from the database to a local JSON file. The file is sorted to minimize diffs when checking into version control.`,
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		path := dataStoreFile
		if path == "" {
			path = seedPath()
		}

		n, err := energy.ExportToJSON(repo, path)
		if err != nil {
			return fmt.Errorf("exporting sites: %w", err)
		}

		fmt.Printf("✅ Exported %s sites to %s\n", textutils.FormatInt(int64(n)), path)

		return nil
	},
}

var dataRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the stored sites with the content of a file",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		path := dataStoreFile
		if path == "" {
			path = seedPath()
		}

		sites, err := energy.ReadSeed(path)
		if err != nil {
			return fmt.Errorf("importing sites: %w", err)
		}

		n, err := storeSites(repo, sites)
		if err != nil {
			return err
		}

		log.Printf("Imported sites from %s", path)
		fmt.Printf("✅ Restored %s sites\n", textutils.FormatInt(int64(n)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataListCmd)
	dataCmd.AddCommand(dataFetchCmd)
	dataCmd.AddCommand(dataLoadCmd)
	dataCmd.AddCommand(dataStoreCmd)
	dataCmd.AddCommand(dataRestoreCmd)

	dataFetchCmd.Flags().BoolVar(
		&fetchOptions.Force,
		"force",
		false,
		"Download datasets already present",
	)
	dataFetchCmd.Flags().BoolVar(
		&fetchOptions.DryRun,
		"dry-run",
		false,
		"Download without writing any file",
	)
	dataFetchCmd.Flags().BoolVar(
		&fetchOptions.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	dataFetchCmd.Flags().BoolVar(
		&fetchOptions.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)

	for _, c := range []*cobra.Command{dataStoreCmd, dataRestoreCmd} {
		c.Flags().StringVar(
			&dataStoreFile,
			"file",
			"",
			"Seed file, defaults to sites.json in the data directory",
		)
	}
}
