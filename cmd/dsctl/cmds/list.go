package cmds

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stores of the universe",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		prefix, _ := cmd.Flags().GetString("prefix")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		maxPages, _ := cmd.Flags().GetInt("pages")

		ctx := cmd.Context()
		pages, err := current.Service.ListStores(ctx, prefix, pageSize)
		if err != nil {
			return err
		}
		for n := 1; ; n++ {
			if err := printJSON(cmd.OutOrStdout(), pages.GetCurrentPage()); err != nil {
				return err
			}
			if pages.IsFinished() || (maxPages > 0 && n >= maxPages) {
				return nil
			}
			if err := pages.AdvanceToNextPage(ctx); err != nil {
				return err
			}
		}
	},
}

func init() {
	listCmd.Flags().String("prefix", "", "only stores whose name starts with this")
	listCmd.Flags().Int("page-size", 0, "stores per page; 0 lets the backend decide")
	listCmd.Flags().Int("pages", 0, "stop after this many pages; 0 reads them all")
}
