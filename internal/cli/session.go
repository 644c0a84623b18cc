package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/session"
)

func newConnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect [HOST PORT]",
		Short: "Connect to a Milvus endpoint and remember it",
		Long: `connect probes HOST:PORT through the admin API and, if the cluster
answers, saves it as the endpoint for later commands and the console.
Without arguments it uses session.default_host and session.default_port.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("want HOST PORT or no arguments, got %d argument(s)", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ep := a.defaultEndpoint()
			if len(args) == 2 {
				port, err := strconv.Atoi(args[1])
				if err != nil || port <= 0 || port > 65535 {
					return fmt.Errorf("port must be between 1 and 65535, got %q", args[1])
				}
				ep = client.Endpoint{Host: args[0], Port: port}
			}

			a.sess.Connect(ep.Host, ep.Port)
			st, err := a.sess.WaitSettled(cmd.Context())
			if err != nil {
				return err
			}
			if a.json {
				if err := writeJSON(cmd.OutOrStdout(), st); err != nil {
					return err
				}
			} else if st.Connected() {
				fmt.Fprintln(cmd.OutOrStdout(), st.Label())
			}
			if !st.Connected() {
				return fmt.Errorf("connect %s: %s", ep, orDash(st.LastError))
			}
			return nil
		},
	}
}

func newDisconnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the saved endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.sess.Disconnect()
			if a.json {
				return writeJSON(cmd.OutOrStdout(), a.sess.Snapshot())
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.sess.Snapshot().Label())
			return nil
		},
	}
}

type statusOutput struct {
	Admin struct {
		URL    string `json:"url"`
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	} `json:"admin"`
	Session session.State `json:"session"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show admin API health and the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out statusOutput
			out.Admin.URL = a.api.BaseURL()
			if h, err := a.api.Health(cmd.Context()); err != nil {
				out.Admin.Status = "unreachable"
				out.Admin.Error = client.Message(err)
			} else {
				out.Admin.Status = h.Status
			}

			a.sess.Start()
			st, err := a.sess.WaitSettled(cmd.Context())
			if err != nil {
				return err
			}
			out.Session = st

			if a.json {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Admin API:  %s (%s)\n", out.Admin.URL, out.Admin.Status)
			if out.Admin.Error != "" {
				fmt.Fprintf(w, "            %s\n", out.Admin.Error)
			}
			fmt.Fprintf(w, "Session:    %s\n", st.Label())
			if st.LastError != "" {
				fmt.Fprintf(w, "Last error: %s\n", st.LastError)
			}
			if !st.LastVerifiedAt.IsZero() {
				fmt.Fprintf(w, "Verified:   %s\n", st.LastVerifiedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
