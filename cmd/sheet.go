package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import edits from the shared lead sheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initPipeline(ctx, "import")
		if err != nil {
			return err
		}
		defer env.Close()

		path := sheetPath(cmd)
		res, err := env.Pipeline.Import(ctx, path)
		if err != nil {
			return eris.Wrap(err, "import sheet")
		}
		for _, e := range res.Invalid {
			fmt.Fprintf(os.Stderr, "skipped %v\n", e)
		}
		fmt.Printf("updated=%d inserted=%d invalid=%d\n", res.Updated, res.Inserted, len(res.Invalid))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger to the shared lead sheet (.xlsx or .csv)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initPipeline(ctx, "export")
		if err != nil {
			return err
		}
		defer env.Close()

		path := sheetPath(cmd)
		n, err := env.Pipeline.Export(ctx, path)
		if err != nil {
			return eris.Wrap(err, "export sheet")
		}
		fmt.Printf("exported %d lead(s) to %s\n", n, path)
		return nil
	},
}

func sheetPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("path"); p != "" {
		return p
	}
	return cfg.Sheet.Path
}

func init() {
	importCmd.Flags().String("path", "", "sheet path (default from config)")
	exportCmd.Flags().String("path", "", "sheet path (default from config)")
	rootCmd.AddCommand(importCmd, exportCmd)
}
