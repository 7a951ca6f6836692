// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/cartelec/cartelec/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
