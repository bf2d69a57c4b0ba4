//go:build windows

package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var shutdownSignals = []os.Signal{os.Interrupt}

var errNoDaemon = errors.New("daemon mode is not supported on Windows, use 'run' for foreground execution")

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start daemon (not supported on Windows)",
		RunE:  func(*cobra.Command, []string) error { return errNoDaemon },
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop daemon (not supported on Windows)",
		RunE:  func(*cobra.Command, []string) error { return errNoDaemon },
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status (not supported on Windows)",
		RunE:  func(*cobra.Command, []string) error { return errNoDaemon },
	}
}
