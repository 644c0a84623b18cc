package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/milvus-admin/console/internal/action"
)

var printer = message.NewPrinter(language.English)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func count(n int64) string {
	return printer.Sprintf("%d", n)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// actionOutput is the --json form of an action result.
type actionOutput struct {
	Action     string `json:"action"`
	Collection string `json:"collection"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	JobID      int64  `json:"job_id,omitempty"`
}

// printResult reports an action result and turns a failure into an error so
// the process exits non-zero.
func printResult(cmd *cobra.Command, a *app, res action.Result) error {
	if a.json {
		if err := writeJSON(cmd.OutOrStdout(), actionOutput{
			Action:     res.Kind.String(),
			Collection: res.Target,
			Status:     string(res.Status),
			Message:    res.Message,
			JobID:      res.JobID,
		}); err != nil {
			return err
		}
	} else if res.OK() {
		msg := res.Message
		if res.JobID != 0 {
			msg += fmt.Sprintf(" (job %d)", res.JobID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	}
	if !res.OK() {
		return fmt.Errorf("%s %s: %s", res.Kind, res.Target, res.Message)
	}
	return nil
}
