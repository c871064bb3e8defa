package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	legacyGetCmd = &cobra.Command{
		Use:   "legacy-get <store> <key>",
		Short: "Read a key from a store written without a scope (deprecated)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			val, err := current.Service.GetDataFromEmptyScopeDataStore(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), val)
		},
	}

	flagCmd = &cobra.Command{
		Use:   "flag <name>",
		Short: "Resolve a runtime variable and print the tier that answered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class, _ := cmd.Flags().GetString("class")
			p := current.Flags
			name := args[0]

			var val any
			var tier fmt.Stringer
			switch class {
			case "flag":
				val, tier = p.ResolveFlag(name)
			case "int":
				val, tier = p.ResolveInt(name)
			case "string":
				val, tier = p.ResolveString(name)
			case "log":
				val, tier = p.ResolveLogLevel(name)
			default:
				return fmt.Errorf("unknown class %q (flag, int, string, log)", class)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"name":  name,
				"value": val,
				"tier":  tier.String(),
			})
		},
	}
)

func init() {
	flagCmd.Flags().String("class", "flag", "variable class (flag, int, string, log)")
}
