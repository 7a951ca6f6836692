// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// globalOptions are shared by every command.
type globalOptions struct {
	// DataDir holds the boundary files and the site registries
	DataDir string

	// DbPath is the directory of the duckdb database
	DbPath string

	// StylePath is an optional style file replacing the embedded one
	StylePath string
}

var options = &globalOptions{}

// Environment variables read when the matching flag is not set.
var envFlags = map[string]string{
	"data-dir": "CARTELEC_DATA_DIR",
	"db-path":  "CARTELEC_DB_PATH",
	"style":    "CARTELEC_STYLE",
	"addr":     "CARTELEC_ADDR",
}

var rootCmd = &cobra.Command{
	Use:   "cartelec",
	Short: "French electrical infrastructure map",
	Long: `
cartelec prepares and serves the map of the French electrical infrastructure:
administrative boundaries (regions, departements, communes) and energy
production sites (wind, solar and nuclear) placed through their commune.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadEnv(cmd, ".env")
	},
}

// loadEnv reads path into the environment, without overriding variables
// already set, then fills unset flags from the environment.
func loadEnv(cmd *cobra.Command, path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	for name, env := range envFlags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}

		value, ok := os.LookupEnv(env)
		if !ok || value == "" {
			continue
		}

		if err := flag.Value.Set(value); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}

	return nil
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&options.DataDir,
		"data-dir",
		"data",
		"Directory holding the boundary files and the site registries",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.DbPath,
		"db-path",
		"db",
		"Directory where the database is stored",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.StylePath,
		"style",
		"",
		"Style file, see 'cartelec debug style' for the default one",
	)
}
