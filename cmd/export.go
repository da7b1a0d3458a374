package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bcorbett503/HoopRank/internal/venuefile"
)

var exportCmd = &cobra.Command{
	Use:   "export <in> <out>",
	Short: "Convert a venue file between JSON, Dart and GeoJSON",
	Long:  "Formats are chosen by extension. GeoJSON output skips records without coordinates.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dartVar, _ := cmd.Flags().GetString("dart-var")

		records, err := venuefile.Read(args[0])
		if err != nil {
			return err
		}
		if err := venuefile.Write(args[1], records, venuefile.DartOptions{Variable: dartVar}); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %d records to %s\n", len(records), args[1])
		return nil
	},
}

func init() {
	exportCmd.Flags().String("dart-var", "indoorGymsData", "Dart variable name for .dart output")
	rootCmd.AddCommand(exportCmd)
}
