// Package cmds builds gpudbg's cobra command tree, mirroring the
// teacher's cmd/dlv layout: a root command plus one subcommand per mode
// of operation.
package cmds

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ben-clayton/gpudbg/internal/config"
	"github.com/ben-clayton/gpudbg/internal/dap"
	"github.com/ben-clayton/gpudbg/internal/demohost"
	"github.com/ben-clayton/gpudbg/internal/handlers"
	"github.com/ben-clayton/gpudbg/pkg/debug"
	"github.com/ben-clayton/gpudbg/pkg/logflags"
	"github.com/spf13/cobra"
)

var (
	flagPort          int
	flagConfig        string
	flagLog           bool
	flagLogOutput     string
	flagSanitizeNames bool
	flagDemo          bool
)

// New builds the root command.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:   "gpudbg",
		Short: "in-process Debug Adapter Protocol server",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "start the DAP listener and block until shutdown",
		RunE:  runServe,
	}
	serve.Flags().IntVar(&flagPort, "port", 0, "TCP port to listen on (default from config, else 19020)")
	serve.Flags().StringVar(&flagConfig, "config", "gpudbg.toml", "path to the TOML config file")
	serve.Flags().BoolVar(&flagLog, "log", false, "enable logging")
	serve.Flags().StringVar(&flagLogOutput, "log-output", "", "comma separated list of log layers to enable")
	serve.Flags().BoolVar(&flagSanitizeNames, "sanitize-client-names", false, "replace '.' with '_' in names sent to every client")
	serve.Flags().BoolVar(&flagDemo, "demo", false, "drive a synthetic demo host instead of waiting for an embedder")

	root.AddCommand(serve)
	return root
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	cfg = cfg.ApplyFlags(config.Overrides{
		Port:         flagPort,
		PortSet:      cmd.Flags().Changed("port"),
		Log:          flagLog,
		LogSet:       cmd.Flags().Changed("log"),
		LogOutput:    flagLogOutput,
		LogOutputSet: cmd.Flags().Changed("log-output"),
		Sanitize:     flagSanitizeNames,
		SanitizeSet:  cmd.Flags().Changed("sanitize-client-names"),
		Demo:         flagDemo,
	})
	if cfg.Port == 0 {
		cfg.Port = config.DefaultPort
	}

	if err := logflags.Setup(cfg.Log, cfg.LogOutput); err != nil {
		return err
	}

	dctx := debug.NewDebugContext()
	dctx.SetLogger(logflags.DebugContextLogger())

	addr := fmt.Sprintf("localhost:%d", cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("gpudbg: listen on %s: %w", addr, err)
	}
	fmt.Fprintf(os.Stdout, "gpudbg: listening on %s\n", addr)

	host := &handlers.Host{
		Ctx:             dctx,
		SanitizeDefault: cfg.SanitizeClientNames,
		Log:             logflags.HandlersLogger(),
	}
	listener := dap.NewServerListener(ln, handlers.Register(host), logflags.ListenerLogger())
	host.Listener = listener
	dctx.AddListener(handlers.NewEventTranslator(listener))

	demoCtx, cancelDemo := context.WithCancel(context.Background())
	if cfg.Demo {
		demohost.Run(demoCtx, dctx)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- listener.Serve() }()

	select {
	case <-sig:
	case err := <-errCh:
		cancelDemo()
		return err
	}

	cancelDemo()
	if err := listener.Stop(); err != nil {
		return err
	}
	listener.Wait()
	return nil
}
