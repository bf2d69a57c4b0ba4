//go:build !windows

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start daemon (background)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if pid, err := readPidFile(cfg.PidFile); err == nil {
				if processExists(pid) {
					return fmt.Errorf("resmon is already running (PID %d)", pid)
				}
				os.Remove(cfg.PidFile)
			}

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to find executable: %w", err)
			}

			logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", cfg.LogFile, err)
			}
			defer logFile.Close()

			childArgs := append([]string{"run", "--daemon"}, forwardFlags(cmd, cfg)...)
			child := &exec.Cmd{
				Path:   exe,
				Args:   append([]string{filepath.Base(exe)}, childArgs...),
				Stdout: logFile,
				Stderr: logFile,
				SysProcAttr: &syscall.SysProcAttr{
					Setsid: true, // detach from terminal
				},
			}
			if err := child.Start(); err != nil {
				return fmt.Errorf("failed to start daemon: %w", err)
			}

			pid := child.Process.Pid
			if err := writePidFile(cfg.PidFile, pid); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to write PID file: %v\n", err)
			}
			child.Process.Release()

			fmt.Printf("resmon started (PID %d)\n", pid)
			printInfo(cfg)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			pid, err := readPidFile(cfg.PidFile)
			if err != nil {
				return fmt.Errorf("resmon is not running (no PID file: %s)", cfg.PidFile)
			}
			if !processExists(pid) {
				os.Remove(cfg.PidFile)
				return fmt.Errorf("resmon is not running (stale PID %d)", pid)
			}

			proc, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}
			if err := proc.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to stop PID %d: %w", pid, err)
			}

			// up to 10 seconds
			for i := 0; i < 100; i++ {
				time.Sleep(100 * time.Millisecond)
				if !processExists(pid) {
					os.Remove(cfg.PidFile)
					fmt.Printf("resmon stopped (PID %d)\n", pid)
					return nil
				}
			}

			fmt.Printf("resmon stop signal sent (PID %d), waiting for exit...\n", pid)
			os.Remove(cfg.PidFile)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			pid, err := readPidFile(cfg.PidFile)
			if err != nil {
				return fmt.Errorf("resmon is stopped")
			}
			if !processExists(pid) {
				os.Remove(cfg.PidFile)
				return fmt.Errorf("resmon is stopped (stale PID file, was PID %d)", pid)
			}

			fmt.Printf("resmon is running (PID %d)\n", pid)
			printInfo(cfg)
			return nil
		},
	}
}

func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 checks existence without sending a signal
	return proc.Signal(syscall.Signal(0)) == nil
}
