package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bcorbett503/HoopRank/internal/metrics"
	"github.com/bcorbett503/HoopRank/internal/model"
	"github.com/bcorbett503/HoopRank/internal/pipeline"
	"github.com/bcorbett503/HoopRank/internal/venuefile"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Remove duplicate venues from the outdoor and indoor surveys",
	Long: "Runs the same-name pass on each survey, drops outdoor courts that duplicate an indoor gym, " +
		"optionally drops indoor records that duplicate an outdoor court, and filters non-basketball " +
		"venues out of the indoor survey. Outputs are written only if every pass succeeds.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		outdoorPath, _ := cmd.Flags().GetString("outdoor")
		indoorPath, _ := cmd.Flags().GetString("indoor")
		outdoorOut, _ := cmd.Flags().GetString("outdoor-out")
		indoorOut, _ := cmd.Flags().GetString("indoor-out")
		reportPath, _ := cmd.Flags().GetString("report")
		noStore, _ := cmd.Flags().GetBool("no-store")

		if cmd.Flags().Changed("cross-source") {
			cfg.Dedup.CrossSource, _ = cmd.Flags().GetBool("cross-source")
		}
		if cmd.Flags().Changed("policy") {
			cfg.Dedup.Policy, _ = cmd.Flags().GetString("policy")
		}
		if cmd.Flags().Changed("workers") {
			cfg.Dedup.Workers, _ = cmd.Flags().GetInt("workers")
		}
		if noFilter, _ := cmd.Flags().GetBool("no-filter"); noFilter {
			cfg.Filter.Enabled = false
		}

		outdoor, err := venuefile.Read(outdoorPath)
		if err != nil {
			return err
		}
		indoor, err := venuefile.Read(indoorPath)
		if err != nil {
			return err
		}

		opts := []pipeline.Option{pipeline.WithInput(model.RunInput{
			OutdoorPath: outdoorPath,
			IndoorPath:  indoorPath,
			CrossSource: cfg.Dedup.CrossSource,
			Policy:      cfg.Dedup.Policy,
		})}

		var collector *metrics.Collector
		if cfg.Metrics.Textfile != "" {
			collector, err = metrics.NewCollector(prometheus.NewRegistry())
			if err != nil {
				return err
			}
			opts = append(opts, pipeline.WithMetrics(collector))
			defer func() {
				if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					zap.L().Warn("dedup: write metrics textfile", zap.Error(err))
				}
			}()
		}

		if !noStore {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			opts = append(opts, pipeline.WithStore(st))
		}

		p, err := pipeline.New(cfg, opts...)
		if err != nil {
			return err
		}
		report, err := p.Run(ctx, outdoor, indoor)
		if err != nil {
			return eris.Wrap(err, "dedup")
		}

		outdoorVar, _ := cmd.Flags().GetString("outdoor-var")
		indoorVar, _ := cmd.Flags().GetString("indoor-var")
		if err := venuefile.Write(outdoorOut, report.Outdoor, venuefile.DartOptions{Variable: outdoorVar}); err != nil {
			return err
		}
		if err := venuefile.Write(indoorOut, report.Indoor, venuefile.DartOptions{Variable: indoorVar}); err != nil {
			return err
		}

		if reportPath != "" {
			data, err := report.YAML()
			if err != nil {
				return err
			}
			if err := os.WriteFile(reportPath, data, 0o644); err != nil {
				return eris.Wrapf(err, "dedup: write report %s", reportPath)
			}
		}

		formatReport(os.Stdout, report)
		return nil
	},
}

func init() {
	f := dedupCmd.Flags()
	f.String("outdoor", "courts.json", "outdoor court survey (.json, .dart or .geojson)")
	f.String("indoor", "indoor_gyms_data.dart", "indoor gym survey (.json, .dart or .geojson)")
	f.String("outdoor-out", "courts_deduped.json", "where to write surviving outdoor courts")
	f.String("indoor-out", "indoor_gyms_deduped.dart", "where to write surviving indoor venues")
	f.String("outdoor-var", "mockCourtsData", "Dart variable name for outdoor output")
	f.String("indoor-var", "indoorGymsData", "Dart variable name for indoor output")
	f.String("report", "", "write a YAML run report to this path")
	f.Bool("cross-source", false, "also drop indoor records that duplicate an outdoor court")
	f.String("policy", "first", "candidate policy for cross-category passes (first, best)")
	f.Int("workers", 1, "goroutines per cross-category pass")
	f.Bool("no-filter", false, "skip the indoor category filter")
	f.Bool("no-store", false, "do not record the run in the history database")

	rootCmd.AddCommand(dedupCmd)
}

// formatReport writes a per-pass summary table to w.
func formatReport(out io.Writer, r *pipeline.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PASS\tREMOVED\tSKIPPED\tDURATION")
	for _, p := range r.Passes {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%dms\n", p.Pass, p.Removed, p.Skipped, p.DurationMS)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Outdoor:\t%d -> %d\n", r.Summary.OutdoorIn, r.Summary.OutdoorOut)
	_, _ = fmt.Fprintf(w, "Indoor:\t%d -> %d\n", r.Summary.IndoorIn, r.Summary.IndoorOut)
	_, _ = fmt.Fprintf(w, "Removed:\t%d\n", r.Summary.Removed())
	if r.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:\t%s\n", r.RunID)
	}
	_ = w.Flush()

	for _, p := range r.Passes {
		for _, m := range p.Samples {
			_, _ = fmt.Fprintf(out, "  [%s] %q -> kept %q (%.0fm)\n", p.Pass, m.RemovedName, m.KeptName, m.Distance)
		}
	}
}
