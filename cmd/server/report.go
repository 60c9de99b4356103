package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/paytungan/paytungan/internal/report"
)

func reportCmd(load configLoader) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report [split-bill-id]",
		Short: "Export a split bill's collection state to Excel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid split bill id %q: %w", args[0], err)
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			f, filename, err := report.NewExporter(store).SplitBill(cmd.Context(), id)
			if err != nil {
				return err
			}
			defer f.Close()

			if output == "" {
				output = filename
			}
			if err := f.SaveAs(output); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: derived from the split bill name)")
	return cmd
}
