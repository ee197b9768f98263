// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Long:  "Check the running server's status endpoint and display status information.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", "127.0.0.1:18790", "server address to check")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	sc := newServiceClient(addr)
	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := sc.getJSON("/api/v1/status", &body); err != nil {
		if errors.Is(err, ErrServiceNotRunning) {
			_, _ = fmt.Fprintf(out, "Saucier at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Saucier at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Saucier at %s: %s (version %s)\n", addr, body.Status, body.Version)
	return nil
}
