package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

var logLevel string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "grokparty",
		Short:        "Terminal-based AI character conversations",
		Long:         "GrokParty sets up a cast of AI characters and lets them talk to each other live in your terminal.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information for this binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("grokparty %s (%s)\n", version, commit)
			return nil
		},
	}
}

func configureLogging(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(parsed)
	return nil
}

// redirectLogsToFile moves logrus output to a file so log lines cannot
// corrupt the alternate screen while a TUI is running. It returns a restore
// function.
func redirectLogsToFile() (restore func(), err error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	dir := filepath.Join(cacheDir, "grokparty")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "grokparty.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	var previous io.Writer = logrus.StandardLogger().Out
	logrus.SetOutput(f)
	return func() {
		logrus.SetOutput(previous)
		f.Close()
	}, nil
}
