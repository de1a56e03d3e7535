package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tanq16/bootfetch/internal/bootdev"
	"github.com/tanq16/bootfetch/internal/env"
	"github.com/tanq16/bootfetch/internal/memory"
	"github.com/tanq16/bootfetch/internal/metrics"
	"github.com/tanq16/bootfetch/internal/output"
	"github.com/tanq16/bootfetch/internal/transport"
	"github.com/tanq16/bootfetch/internal/transport/httpc"
	"github.com/tanq16/bootfetch/internal/utils"
	"github.com/tanq16/bootfetch/internal/wget"
)

func newWgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wget [address] URL",
		Short: "Load a file via HTTP into memory",
		Long: `Load a file via HTTP into memory at address.

URL is either http://host[:port]/path, host:path, or a bare path served by
the httpserverip (or serverip) environment variable. Without an address the
loadaddr environment variable is used. On success filesize and fileaddr are
set in the environment.`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			switch runWget(cmd.Context(), args, os.Stdout) {
			case wget.CmdSuccess:
			case wget.CmdUsage:
				cmd.Usage()
				exit(2)
			default:
				exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "Network device to download over (default: ethact or any)")
	cmd.Flags().StringVar(&ramBase, "ram-base", env.FormatHex(utils.DefaultRAMBase), "Base address of loadable memory (hex)")
	cmd.Flags().StringVar(&ramSize, "ram-size", env.FormatHex(utils.DefaultRAMSize), "Size of loadable memory (hex)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Idle timeout for the transfer (eg. 5s, 1m)")
	cmd.Flags().DurationVar(&pollEvery, "poll", 10*time.Millisecond, "Polling interval of the receive loop")
	cmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write download metrics in textfile format to this path")
	cmd.Flags().StringVarP(&dumpFile, "dump", "o", "", "Also write the loaded file to this path")
	cmd.Flags().StringVar(&bootdevFile, "bootdev-file", "", "Write the boot device description (YAML) to this path")
	return cmd
}

func runWget(ctx context.Context, args []string, console io.Writer) wget.ResultCode {
	store, err := env.OpenFile(envFile)
	if err != nil {
		output.PrintError(err.Error())
		return wget.CmdFailure
	}
	base, size, err := ramWindow()
	if err != nil {
		output.PrintError(err.Error())
		return wget.CmdUsage
	}

	logger := utils.GetLogger("wget")
	reg := prometheus.NewRegistry()
	metrics.Register(reg)
	defer func() {
		if metricsFile == "" {
			return
		}
		if err := metrics.WriteTextfile(metricsFile, reg); err != nil {
			logger.Warn().Err(err).Msg("Metrics not written")
		}
	}()

	arena := memory.NewArena(base, size)
	registry := bootdev.NewMemory()
	driver := &wget.Driver{
		Stack: httpc.NewStack(httpc.Config{
			IdleTimeout:  timeout,
			PollInterval: pollEvery,
			ReadSize:     utils.DefaultReadSize,
			UserAgent:    userAgent,
		}),
		Env:      store,
		BootDev:  registry,
		Arena:    arena,
		Console:  console,
		Device:   transport.Device{Name: device},
		LoadAddr: utils.DefaultLoadAddr,
	}

	code := driver.Command(ctx, args)
	if code != wget.CmdSuccess {
		if code == wget.CmdFailure {
			output.PrintError("Download failed")
		}
		return code
	}
	if err := export(store, arena, registry); err != nil {
		output.PrintError(err.Error())
		return wget.CmdFailure
	}
	return code
}

// export writes the loaded image and the boot device description when
// requested.
func export(store env.Store, arena *memory.Arena, registry *bootdev.Memory) error {
	if dumpFile != "" {
		addr, size, err := loaded(store)
		if err != nil {
			return err
		}
		data, err := arena.Load(addr, size)
		if err != nil {
			return fmt.Errorf("error reading loaded image: %v", err)
		}
		path := utils.RenewOutputPath(dumpFile)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("error writing dump: %v", err)
		}
		output.PrintSuccess(fmt.Sprintf("Wrote %s to %s", output.FormatBytes(size), path))
	}
	if bootdevFile != "" {
		f, err := os.Create(bootdevFile)
		if err != nil {
			return fmt.Errorf("error creating boot device file: %v", err)
		}
		defer f.Close()
		if err := registry.WriteYAML(f); err != nil {
			return err
		}
	}
	return nil
}

func loaded(store env.Store) (uint64, uint64, error) {
	var vals [2]uint64
	for i, name := range []string{env.FileAddr, env.FileSize} {
		s, ok := store.Get(name)
		if !ok {
			return 0, 0, fmt.Errorf("%s is not set", name)
		}
		v, err := env.ParseHex(s)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid %s: %v", name, err)
		}
		vals[i] = v
	}
	return vals[0], vals[1], nil
}
