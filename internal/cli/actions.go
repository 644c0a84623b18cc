package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milvus-admin/console/internal/action"
	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/schema"
)

var errNeedsYes = errors.New("refusing to run a destructive action without --yes")

func dispatch(cmd *cobra.Command, a *app, req action.Request) error {
	ep, err := a.endpoint(cmd.Context())
	if err != nil {
		return err
	}
	return printResult(cmd, a, a.dispatcher.Dispatch(cmd.Context(), ep, req))
}

func newLoadCmd(a *app) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "load NAME",
		Short: "Load a collection into memory",
		Long: `load makes a collection searchable. With --field only the named fields
are loaded; primary key fields are always included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			req := action.Request{Kind: action.Load, Target: name}
			if len(fields) == 0 {
				return dispatch(cmd, a, req)
			}

			ep, err := a.endpoint(cmd.Context())
			if err != nil {
				return err
			}
			d, err := a.api.CollectionDetails(cmd.Context(), ep, name)
			if err != nil {
				return err
			}
			selected, err := selectFields(d.Schema, fields)
			if err != nil {
				return err
			}
			req.Payload = action.LoadPayload{Fields: selected}
			return printResult(cmd, a, a.dispatcher.Dispatch(cmd.Context(), ep, req))
		},
	}
	cmd.Flags().StringArrayVar(&fields, "field", nil, "field to load (repeatable)")
	return cmd
}

// selectFields turns the requested names into a load field list. Primary
// fields are always kept; nil means every field.
func selectFields(all []client.Field, names []string) ([]string, error) {
	sel := schema.NewSelection(all)
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if !sel.Selected(n) {
			return nil, fmt.Errorf("collection has no field %q", n)
		}
		want[n] = true
	}
	for _, f := range all {
		if !want[f.Name] {
			sel.Toggle(f.Name)
		}
	}
	return sel.Request(), nil
}

func newReleaseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "release NAME",
		Short: "Release a collection from memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd, a, action.Request{Kind: action.Release, Target: args[0]})
		},
	}
}

func newCompactCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compact NAME",
		Short: "Start a compaction job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd, a, action.Request{Kind: action.Compact, Target: args[0]})
		},
	}
}

func newDropCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop NAME",
		Short: "Drop a collection and all of its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNeedsYes
			}
			return dispatch(cmd, a, action.Request{Kind: action.Drop, Target: args[0]})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the drop")
	return cmd
}

func newDropIndexCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop-index COLLECTION FIELD",
		Short: "Drop the index on a field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNeedsYes
			}
			return dispatch(cmd, a, action.Request{
				Kind:    action.DropIndex,
				Target:  args[0],
				Payload: action.DropIndexPayload{FieldName: args[1]},
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the drop")
	return cmd
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == args[1] {
				return errors.New("new name must differ from the current name")
			}
			return dispatch(cmd, a, action.Request{
				Kind:    action.Rename,
				Target:  args[0],
				Payload: action.RenamePayload{NewName: args[1]},
			})
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		defs        []string
		description string
	)
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a collection",
		Long: `create builds a collection from --field descriptions of the form
name:type[:opt,...], where opt is primary, auto_id, dim=N, max_length=N or
element=TYPE. Without --field the collection gets an int64 primary key "id"
and a 768-dimensional float_vector "embedding".`,
		Example: `  milvus-admin create books \
    --field id:int64:primary,auto_id \
    --field title:varchar:max_length=256 \
    --field vec:float_vector:dim=128`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := schema.DefaultFields()
			if len(defs) > 0 {
				fields = fields[:0:0]
				for _, s := range defs {
					f, err := schema.ParseField(s)
					if err != nil {
						return err
					}
					fields = append(fields, f)
				}
			}
			body := client.CreateRequest{Name: args[0], Description: description, Fields: fields}
			if err := schema.ValidateCreate(body); err != nil {
				return err
			}
			return dispatch(cmd, a, action.Request{
				Kind:    action.Create,
				Target:  args[0],
				Payload: action.CreatePayload{Description: description, Fields: fields},
			})
		},
	}
	cmd.Flags().StringArrayVar(&defs, "field", nil, "field description name:type[:options] (repeatable)")
	cmd.Flags().StringVar(&description, "description", "", "collection description")
	return cmd
}
