// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cartelec/cartelec/energy"
	"github.com/cartelec/cartelec/layers"
	"github.com/cartelec/cartelec/spatial"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

// eachLine calls fn with every line of stdin, prompting on terminals.
func eachLine(prompt string, fn func(line string)) error {
	input := os.Stdin
	if isatty.IsTerminal(input.Fd()) {
		fmt.Fprintln(os.Stderr, prompt)
	}

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	for scanner.Scan() {
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

func centroidLine(w io.Writer, line string) {
	p, err := spatial.CommuneCenterJSON(json.RawMessage(line))
	if err != nil {
		fmt.Fprintf(w, "%s\t%q\n", line, err)

		return
	}

	fmt.Fprintf(w, "%s\t%v\t%v\n", line, p.Lng, p.Lat)
}

func powerLine(w io.Writer, line string) {
	fmt.Fprintf(w, "%s\t%v\n", line, energy.NormalizePower(line))
}

var debugCentroidCmd = &cobra.Command{
	Use:   "centroid",
	Short: "Compute the centroid of polygon coordinates",
	Long: `Reads the coordinates of a polygon per line, as found in a GeoJSON geometry,
and prints them followed by the longitude and latitude of their centroid.

$ echo '[[[2,48],[4,50]]]' | cartelec debug centroid
[[[2,48],[4,50]]]	3	49
`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return eachLine("Enter polygon coordinates, one per line…", func(line string) {
			centroidLine(os.Stdout, line)
		})
	},
}

var debugPowerCmd = &cobra.Command{
	Use:   "power",
	Short: "Normalize registry power values",
	Long: `Reads a power value per line and prints it followed by its marker radius.

$ echo '12,5' | cartelec debug power
12,5	1250
`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return eachLine("Enter power values, one per line…", func(line string) {
			powerLine(os.Stdout, line)
		})
	},
}

var debugStyleCmd = &cobra.Command{
	Use:   "style",
	Short: "Print the default style file",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		_, err := os.Stdout.Write(layers.DefaultStyleYAML())

		return err
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugCentroidCmd)
	debugCmd.AddCommand(debugPowerCmd)
	debugCmd.AddCommand(debugStyleCmd)
}
