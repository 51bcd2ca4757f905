// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opsdash-dev/opsdash/internal/cache"
	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export collector statistics",
		Long:  "Fetch per-collector statistics from a running server and write them as JSON or YAML.",
		RunE:  runExport,
	}

	cmd.Flags().String("address", "127.0.0.1:18990", "server address to query")
	cmd.Flags().String("format", "json", "output format: json or yaml")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	client := newDashClient(addr)
	var body struct {
		Collectors map[string]cache.StatsSnapshot `json:"collectors"`
	}
	if err := client.getJSON("/api/v1/collectors", &body); err != nil {
		return err
	}

	switch format {
	case "json":
		encoded, err := json.MarshalIndent(body.Collectors, "", "  ")
		if err != nil {
			return opserr.Wrap(err, opserr.CodeCLIResponseInvalid, "encoding stats")
		}
		_, _ = fmt.Fprintln(out, string(encoded))
	case "yaml":
		encoded, err := yaml.Marshal(body.Collectors)
		if err != nil {
			return opserr.Wrap(err, opserr.CodeCLIResponseInvalid, "encoding stats")
		}
		_, _ = fmt.Fprint(out, string(encoded))
	default:
		return opserr.Errorf(opserr.CodeConfigValidateInvalidValue, "unknown format %q (want json or yaml)", format)
	}
	return nil
}
