package cmds

import (
	"dsclient/internal/ports"
	"dsclient/internal/types"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [store] <key>",
		Short: "Read a key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTarget(cmd, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if t.ordered != nil {
				n, found, err := t.ordered.GetAsync(ctx, t.key)
				if err != nil {
					return err
				}
				if !found {
					return printJSON(cmd.OutOrStdout(), nil)
				}
				return printJSON(cmd.OutOrStdout(), n)
			}
			if vh, ok := t.handle.(ports.VersionedHandle); ok {
				val, info, err := vh.GetWithInfoAsync(ctx, t.key)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"value": val, "info": info})
			}
			val, err := t.handle.GetAsync(ctx, t.key)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), val)
		},
	}

	setCmd = &cobra.Command{
		Use:   "set [store] <key> <value>",
		Short: "Write a key; the value is parsed as JSON, or taken as a string",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTarget(cmd, args[:len(args)-1])
			if err != nil {
				return err
			}
			raw := args[len(args)-1]
			if t.ordered != nil {
				n, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return types.Err(types.ErrInvalidArgument, err, "ordered stores hold integers")
				}
				return t.ordered.SetAsync(cmd.Context(), t.key, n)
			}
			return t.handle.SetAsync(cmd.Context(), t.key, parseValue(raw))
		},
	}

	incrCmd = &cobra.Command{
		Use:   "incr [store] <key>",
		Short: "Increment an integer key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTarget(cmd, args)
			if err != nil {
				return err
			}
			by, _ := cmd.Flags().GetInt64("by")
			var n int64
			if t.ordered != nil {
				n, err = t.ordered.IncrementAsync(cmd.Context(), t.key, by)
			} else {
				n, err = t.handle.IncrementAsync(cmd.Context(), t.key, by)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), n)
		},
	}

	removeCmd = &cobra.Command{
		Use:   "remove [store] <key>",
		Short: "Delete a key and print what it held",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTarget(cmd, args)
			if err != nil {
				return err
			}
			if t.ordered != nil {
				n, found, err := t.ordered.RemoveAsync(cmd.Context(), t.key)
				if err != nil || !found {
					return err
				}
				return printJSON(cmd.OutOrStdout(), n)
			}
			val, err := t.handle.RemoveAsync(cmd.Context(), t.key)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), val)
		},
	}
)

func init() {
	for _, c := range []*cobra.Command{getCmd, setCmd, incrCmd, removeCmd} {
		c.Flags().String("scope", "", "store scope (default \"global\")")
		c.Flags().Bool("v2", false, "request the V2 API")
		c.Flags().Bool("all-scopes", false, "address keys as scope/key (V2 only)")
		c.Flags().Bool("ordered", false, "use the ordered store of that name")
		c.Flags().Bool("legacy", false, "use the default store; the store argument is omitted")
	}
	incrCmd.Flags().Int64("by", 1, "increment")
}

// target is the handle a store command operates on; exactly one of handle and
// ordered is set.
type target struct {
	handle  ports.Handle
	ordered ports.OrderedHandle
	key     string
}

func openTarget(cmd *cobra.Command, args []string) (target, error) {
	f := cmd.Flags()
	legacy, _ := f.GetBool("legacy")
	ordered, _ := f.GetBool("ordered")
	scope, _ := f.GetString("scope")
	svc := current.Service

	if legacy {
		if len(args) != 1 {
			return target{}, fmt.Errorf("--legacy takes only a key")
		}
		h, err := svc.GetDefaultStore()
		return target{handle: h, key: args[0]}, err
	}
	if len(args) != 2 {
		return target{}, fmt.Errorf("expected a store name and a key")
	}
	name, key := args[0], args[1]

	if ordered {
		h, err := svc.GetOrderedStore(name, scope)
		return target{ordered: h, key: key}, err
	}

	var opts *types.DataStoreOptions
	v2, _ := f.GetBool("v2")
	allScopes, _ := f.GetBool("all-scopes")
	if v2 || allScopes {
		opts = types.NewDataStoreOptions()
		opts.AllScopes = allScopes
		if v2 {
			opts.SetExperimentalFeatures(map[string]any{types.ExperimentalV2: true})
		}
	}
	h, err := svc.GetStore(name, scope, opts)
	return target{handle: h, key: key}, err
}

// parseValue decodes raw as JSON and falls back to the literal string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
