// Package cli is the milvus-admin command line: the console, one-shot
// commands against the admin API, and the headless watch server.
package cli

import (
	"github.com/spf13/cobra"
)

// annotationConsole marks commands whose stdout belongs to the terminal UI,
// so logs must go to a file.
const annotationConsole = "console"

type globalFlags struct {
	configPath string
	envFile    string
	adminURL   string
	logLevel   string
	json       bool
}

// Execute runs the root command.
func Execute() error {
	root, a := newRootCmd()
	defer a.close()
	return root.Execute()
}

// newRootCmd builds the command tree. The returned app is wired lazily by
// the pre-run hook and must be closed by the caller.
func newRootCmd() (*cobra.Command, *app) {
	flags := &globalFlags{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "milvus-admin",
		Short: "Terminal console for a Milvus admin API",
		Long: `milvus-admin connects to a Milvus cluster through its admin HTTP API.
Without a subcommand it opens the interactive console; the subcommands run a
single query or action and exit.`,
		SilenceUsage: true,
		Annotations:  map[string]string{annotationConsole: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.wire(flags, cmd.Annotations[annotationConsole] == "true")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, a)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&flags.envFile, "env-file", "", "path to a .env file (default ./.env)")
	pf.StringVar(&flags.adminURL, "admin-url", "", "admin API base URL, e.g. http://localhost:8080")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&flags.json, "json", false, "print machine-readable JSON")

	rootCmd.AddCommand(
		newConsoleCmd(a),
		newConnectCmd(a),
		newDisconnectCmd(a),
		newStatusCmd(a),
		newCollectionsCmd(a),
		newDescribeCmd(a),
		newSegmentsCmd(a),
		newIndexingCmd(a),
		newCompactionStateCmd(a),
		newLoadCmd(a),
		newReleaseCmd(a),
		newDropCmd(a),
		newCompactCmd(a),
		newRenameCmd(a),
		newCreateCmd(a),
		newDropIndexCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return rootCmd, a
}
