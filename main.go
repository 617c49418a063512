// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Tacbridge - Tac1 Bioreactor Protocol Bridge
//
// Translates between a supervisory controller speaking the descriptive Tac1
// JSON schema and bioreactor firmware speaking the compact device schema.

package main

import (
	"os"

	"github.com/Thermoquad/tacbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
