package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/playok/resmon/internal/config"
)

var version = "dev"

// globalFlags are shared by every subcommand and override the config file.
type globalFlags struct {
	configPath string
	listen     string
	dbPath     string
	basePath   string
	pidFile    string
	logFile    string
	logLevel   string
	dev        bool
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "resmon",
	Short: "Host resource monitor with threshold alerts and e-mail digests",
	Long: `resmon samples memory, disk and CPU load, compares them against
warning/critical thresholds, keeps an alert history and e-mails rate-limited
digests when a resource stays above its warning level.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringVarP(&flags.configPath, "config", "c", "config.yaml", "config file path")
	fs.StringVar(&flags.listen, "listen", "", "listen address (default 127.0.0.1:9923)")
	fs.StringVar(&flags.dbPath, "db", "", "SQLite database path")
	fs.StringVar(&flags.basePath, "base-path", "", "base URL path for reverse proxy")
	fs.StringVar(&flags.pidFile, "pid-file", "", "PID file path")
	fs.StringVar(&flags.logFile, "log-file", "", "daemon log file path")
	fs.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&flags.dev, "dev", false, "human-readable development logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(stopCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(nginxCmd())
	rootCmd.AddCommand(versionCmd())
}

// loadConfig loads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	changed := cmd.Flags().Changed
	cfg, err := config.Load(flags.configPath, func(c *config.Config) {
		if changed("listen") {
			c.Listen = flags.listen
		}
		if changed("db") {
			c.DBPath = flags.dbPath
		}
		if changed("base-path") {
			c.BasePath = flags.basePath
		}
		if changed("pid-file") {
			c.PidFile = flags.pidFile
		}
		if changed("log-file") {
			c.LogFile = flags.logFile
		}
		if changed("log-level") {
			c.LogLevel = flags.logLevel
		}
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// forwardFlags rebuilds the persistent flags the user set so a daemon
// child sees the same configuration.
func forwardFlags(cmd *cobra.Command, cfg *config.Config) []string {
	args := []string{"--config", cfg.ConfigPath}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == "config" || rootCmd.PersistentFlags().Lookup(f.Name) == nil {
			return
		}
		args = append(args, "--"+f.Name+"="+f.Value.String())
	})
	return args
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if flags.dev {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	zc.Level = level
	return zc.Build()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("resmon %s\n", version)
		},
	}
}

func nginxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nginx",
		Short: "Print sample nginx reverse proxy configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			printNginx(cfg)
			return nil
		},
	}
}

func printNginx(cfg *config.Config) {
	bp := cfg.BasePath
	if bp == "/" {
		bp = "/resmon"
		fmt.Println("# base_path is \"/\", using \"/resmon\" as example.")
		fmt.Println("# Set base_path in config.yaml to match your location.")
		fmt.Println()
	}

	fmt.Printf(`# nginx reverse proxy configuration for resmon
# Add this inside an http { server { ... } } block.

location %s/ {
    proxy_pass         http://%s/;
    proxy_http_version 1.1;

    # live updates
    proxy_set_header   Upgrade $http_upgrade;
    proxy_set_header   Connection "upgrade";

    proxy_set_header   Host              $host;
    proxy_set_header   X-Real-IP         $remote_addr;
    proxy_set_header   X-Forwarded-For   $proxy_add_x_forwarded_for;
    proxy_set_header   X-Forwarded-Proto $scheme;

    proxy_buffering    off;
    proxy_read_timeout 86400s;
}

# deny scraping from outside
location %s/metrics {
    allow 127.0.0.1;
    deny  all;
    proxy_pass http://%s/metrics;
}
`, bp, cfg.Listen, bp, cfg.Listen)

	fmt.Println("# config.yaml should have:")
	fmt.Printf("#   base_path: \"%s\"\n", bp)
}

func writePidFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644)
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in %s", path)
	}
	return pid, nil
}

func printInfo(cfg *config.Config) {
	fmt.Printf("  Listen : http://%s\n", cfg.Listen)
	fmt.Printf("  Base   : %s\n", cfg.BasePath)
	fmt.Printf("  Config : %s\n", cfg.ConfigPath)
	fmt.Printf("  DB     : %s\n", cfg.DBPath)
	fmt.Printf("  PID    : %s\n", cfg.PidFile)
	fmt.Printf("  Log    : %s\n", cfg.LogFile)
}
