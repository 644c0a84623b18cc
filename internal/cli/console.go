package cli

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	tui "github.com/milvus-admin/console/internal/app"
	"github.com/milvus-admin/console/internal/watch"
)

// Set with -ldflags "-X github.com/milvus-admin/console/internal/cli.version=...".
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "console",
		Short:       "Open the interactive console (default)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConsole: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, a)
		},
	}
}

func runConsole(cmd *cobra.Command, a *app) error {
	m := tui.New(a.sess, a.api, a.dispatcher, tui.Options{
		AdminURL:        a.api.BaseURL(),
		RefreshInterval: a.cfg.Refresh.Interval,
		DefaultEndpoint: a.defaultEndpoint(),
		Logger:          a.logger.Named("console"),
	})
	a.sess.Start()

	a.logger.Info("console started", zap.String("admin", a.api.BaseURL()))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

func newWatchCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Serve session and collection updates over HTTP and WebSocket",
		Long: `watch runs headless: it restores the saved session, polls the collection
list while connected and serves it at /api/state and as a WebSocket stream
at /ws.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.cfg.Watch.Listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := watch.NewServer(a.sess, a.api, watch.Options{
				RefreshInterval: a.cfg.Refresh.Interval,
				AllowedOrigins:  a.cfg.Watch.AllowedOrigins,
				Logger:          a.logger.Named("watch"),
			})
			a.sess.Start()
			return srv.ListenAndServe(ctx, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default watch.listen, :9090)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// No config or logging needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Version:    %s\n", version)
			fmt.Fprintf(w, "Commit:     %s\n", emptyAsNA(commit))
			fmt.Fprintf(w, "Build Date: %s\n", emptyAsNA(buildDate))
			fmt.Fprintf(w, "Go Version: %s\n", runtime.Version())
			fmt.Fprintf(w, "OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

func emptyAsNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
