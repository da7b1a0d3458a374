package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bcorbett503/HoopRank/internal/filter"
	"github.com/bcorbett503/HoopRank/internal/venue"
	"github.com/bcorbett503/HoopRank/internal/venuefile"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Drop non-basketball venues from an indoor survey",
	Long:  "Removes yoga studios, swim clubs, martial arts schools and similar false positives by name.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, _ := cmd.Flags().GetString("in")
		out, _ := cmd.Flags().GetString("out")
		rejectedPath, _ := cmd.Flags().GetString("rejected")
		dartVar, _ := cmd.Flags().GetString("dart-var")

		records, err := venuefile.Read(in)
		if err != nil {
			return err
		}

		kept, rejected := filter.New().Apply(records)
		zap.L().Info("filter: complete",
			zap.Int("in", len(records)),
			zap.Int("kept", len(kept)),
			zap.Int("rejected", len(rejected)),
		)

		header := append([]string{}, venuefile.DefaultDartHeader...)
		header = append(header, "FILTERED: Removed non-basketball venues (yoga, pilates, etc.)")
		if err := venuefile.Write(out, kept, venuefile.DartOptions{Variable: dartVar, Header: header}); err != nil {
			return err
		}

		if rejectedPath != "" {
			removed := make([]venue.Record, len(rejected))
			for i, r := range rejected {
				removed[i] = r.Record
			}
			if err := venuefile.Write(rejectedPath, removed, venuefile.DartOptions{Variable: dartVar}); err != nil {
				return err
			}
		}

		formatReasons(os.Stdout, len(records), filter.ReasonCounts(rejected))
		return nil
	},
}

func init() {
	filterCmd.Flags().String("in", "indoor_gyms_data.dart", "indoor survey to filter")
	filterCmd.Flags().String("out", "indoor_gyms_filtered.dart", "where to write kept venues")
	filterCmd.Flags().String("rejected", "", "optionally write rejected venues here")
	filterCmd.Flags().String("dart-var", "indoorGymsData", "Dart variable name for .dart outputs")
	rootCmd.AddCommand(filterCmd)
}

// formatReasons writes rejection counts by reason to w.
func formatReasons(out io.Writer, total int, reasons []filter.ReasonCount) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	removed := 0
	for _, rc := range reasons {
		removed += rc.Count
	}
	_, _ = fmt.Fprintf(w, "Venues:\t%d\n", total)
	_, _ = fmt.Fprintf(w, "Removed:\t%d\n", removed)
	for _, rc := range reasons {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", rc.Reason, rc.Count)
	}
	_ = w.Flush()
}
