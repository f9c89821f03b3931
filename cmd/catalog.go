package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rezanikmanesh-79/Karamoozi/internal/catalog"
)

var (
	catalogLimit    int
	catalogCategory string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print products from the persisted corpus",
	Long:  `Loads the corpus file read-only and prints its products, optionally limited to one category or to the first N entries.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		table, err := catalog.Load(cfg.OutputPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if catalogCategory != "" {
			fmt.Fprintf(out, "%d products in %q\n", len(table.ByCategory(catalogCategory)), catalogCategory)
			fmt.Fprint(out, table.RenderCategory(catalogCategory, catalogLimit))
			return nil
		}

		fmt.Fprintf(out, "%d products in %d categories\n", table.Len(), len(table.Categories()))
		fmt.Fprint(out, table.Render(catalogLimit))
		return nil
	},
}

func init() {
	catalogCmd.Flags().IntVarP(&catalogLimit, "limit", "n", 20, "number of products to print (0 prints all)")
	catalogCmd.Flags().StringVarP(&catalogCategory, "category", "c", "", "only print products of this category")
}
