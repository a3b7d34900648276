package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fyrsmithlabs/journald/internal/reflection"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all reflections as JSON",
		Long: `Print every reflection in the backing document, oldest first.

Examples:
  journald list
  journald list --data-dir /var/lib/journald`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cliStore(opts)
			if err != nil {
				return err
			}
			items, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if items == nil {
				items = []reflection.Reflection{}
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var name, text string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Write a new reflection",
		Long: `Append a reflection to the backing document and print it.

Examples:
  journald add --name Ada --text "Learned how interfaces are satisfied implicitly."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cliStore(opts)
			if err != nil {
				return err
			}
			r, err := store.Create(cmd.Context(), name, text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "author name (required)")
	cmd.Flags().StringVar(&text, "text", "", "reflection text (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete every reflection with the given id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cliStore(opts)
			if err != nil {
				return err
			}
			removed, err := store.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%w: %s", reflection.ErrNotFound, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

// cliStore opens the configured store without logging; CLI output is the
// command's result only.
func cliStore(opts *rootOptions) (reflection.Store, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	store, _, err := openStore(cfg, zap.NewNop())
	return store, err
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
