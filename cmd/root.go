package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/bootfetch/internal/env"
	"github.com/tanq16/bootfetch/internal/utils"
)

var (
	envFile     string
	device      string
	ramBase     string
	ramSize     string
	timeout     time.Duration
	pollEvery   time.Duration
	userAgent   string
	debug       bool
	logFile     string
	metricsFile string
	dumpFile    string
	bootdevFile string

	logCloser io.Closer
)

var BootfetchVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "bootfetch",
	Short:   "Bootfetch loads boot images over HTTP into memory",
	Version: BootfetchVersion,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logCloser = utils.InitLogger(debug, logFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exit(1)
	}
}

// exit flushes the log file before leaving with code.
func exit(code int) {
	closeLog()
	os.Exit(code)
}

func closeLog() {
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}

// ramWindow parses the --ram-base and --ram-size flags.
func ramWindow() (uint64, uint64, error) {
	base, err := env.ParseHex(ramBase)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --ram-base: %v", err)
	}
	size, err := env.ParseHex(ramSize)
	if err != nil || size == 0 {
		return 0, 0, fmt.Errorf("invalid --ram-size %q", ramSize)
	}
	if size-1 > math.MaxUint64-base {
		return 0, 0, fmt.Errorf("--ram-base %s + --ram-size %s exceeds the address space", ramBase, ramSize)
	}
	return base, size, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", utils.DefaultEnvFile, "YAML file holding the environment")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotated file (eg. "+utils.LogFile+")")

	rootCmd.AddCommand(newWgetCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newEnvCmd())
}
