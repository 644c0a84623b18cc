package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/schema"
)

func newCollectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "collections",
		Aliases: []string{"ls"},
		Short:   "List collections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ep, err := a.endpoint(cmd.Context())
			if err != nil {
				return err
			}
			cols, err := a.api.ListCollections(cmd.Context(), ep)
			if err != nil {
				return err
			}
			sort.SliceStable(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
			if a.json {
				if cols == nil {
					cols = []client.Collection{}
				}
				return writeJSON(cmd.OutOrStdout(), cols)
			}
			if len(cols) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No collections")
				return nil
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "NAME\tSTATE\tENTITIES\tINDEX\tDESCRIPTION")
			for _, c := range cols {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					c.Name, c.Loaded, count(c.EntityCount), orDash(c.IndexType), c.Description)
			}
			return tw.Flush()
		},
	}
}

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe NAME",
		Short: "Show a collection's schema and load state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, err := a.endpoint(cmd.Context())
			if err != nil {
				return err
			}
			d, err := a.api.CollectionDetails(cmd.Context(), ep, args[0])
			if err != nil {
				return err
			}
			if a.json {
				return writeJSON(cmd.OutOrStdout(), d)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Collection:  %s\n", d.Name)
			fmt.Fprintf(w, "Description: %s\n", orDash(d.Description))
			state := d.LoadState.String()
			if d.LoadState == client.LoadStateLoading && d.LoadingProgress != nil {
				state += fmt.Sprintf(" (%d%%)", *d.LoadingProgress)
			}
			fmt.Fprintf(w, "State:       %s\n", state)
			fmt.Fprintf(w, "Entities:    %s\n", count(d.EntityCount))
			fmt.Fprintf(w, "Index:       %s\n\n", orDash(d.IndexType))

			tw := newTable(w)
			fmt.Fprintln(tw, "FIELD\tTYPE\tOPTIONS\tINDEX")
			for _, f := range d.Schema {
				opts := ""
				if def := schema.FormatField(f); strings.Count(def, ":") == 2 {
					opts = def[strings.LastIndex(def, ":")+1:]
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.Type, orDash(opts), orDash(f.IndexType))
			}
			return tw.Flush()
		},
	}
}

func newSegmentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "segments NAME",
		Short: "List the segments of a loaded collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, err := a.endpoint(cmd.Context())
			if err != nil {
				return err
			}
			segs, err := a.api.Segments(cmd.Context(), ep, args[0])
			if err != nil {
				return err
			}
			if a.json {
				if segs == nil {
					segs = []client.Segment{}
				}
				return writeJSON(cmd.OutOrStdout(), segs)
			}
			if len(segs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No segments for %s\n", args[0])
				return nil
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "SEGMENT\tPARTITION\tROWS\tSTATE\tINDEX\tNODES")
			for _, s := range segs {
				nodes := make([]string, len(s.NodeIDs))
				for i, id := range s.NodeIDs {
					nodes[i] = strconv.FormatInt(id, 10)
				}
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
					s.SegmentID, s.PartitionID, count(s.NumRows), s.State,
					orDash(s.IndexName), orDash(strings.Join(nodes, ",")))
			}
			return tw.Flush()
		},
	}
}

func newIndexingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "indexing",
		Short: "Show index build progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ep, err := a.endpoint(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := a.api.Indexing(cmd.Context(), ep)
			if err != nil {
				return err
			}
			sort.SliceStable(rows, func(i, j int) bool {
				if rows[i].CollectionName != rows[j].CollectionName {
					return rows[i].CollectionName < rows[j].CollectionName
				}
				return rows[i].FieldName < rows[j].FieldName
			})
			if a.json {
				if rows == nil {
					rows = []client.IndexingStatus{}
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No indexes")
				return nil
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "COLLECTION\tFIELD\tINDEX\tSTATE\tPROGRESS\tPENDING")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f%% (%s/%s)\t%s\n",
					r.CollectionName, r.FieldName, orDash(r.IndexType), r.State,
					r.Progress()*100, count(r.IndexedRows), count(r.TotalRows),
					count(r.PendingIndexRows))
			}
			return tw.Flush()
		},
	}
}

func newCompactionStateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compaction-state JOB_ID",
		Short: "Show the progress of a compaction job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("job id %q: %w", args[0], err)
			}
			ep, err := a.endpoint(cmd.Context())
			if err != nil {
				return err
			}
			st, err := a.api.CompactionState(cmd.Context(), ep, jobID)
			if err != nil {
				return err
			}
			if a.json {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			done := "running"
			if st.Done() {
				done = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %d: %s (%s), plans executing %d, completed %d, failed %d\n",
				st.JobID, st.State, done, st.ExecutingPlans, st.CompletedPlans, st.FailedPlans)
			return nil
		},
	}
}
