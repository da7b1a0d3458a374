package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bcorbett503/HoopRank/internal/venuefile"
	"github.com/bcorbett503/HoopRank/pkg/geocode"
)

var nameCmd = &cobra.Command{
	Use:   "name",
	Short: "Name generic \"Basketball Court\" records from a reverse geocode",
	Long: "Looks up each generic court on Nominatim and names it after the nearest park, playground, " +
		"school, neighbourhood, road or city. Names are cached by rounded coordinate in the history database.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		in, _ := cmd.Flags().GetString("in")
		out, _ := cmd.Flags().GetString("out")
		limit, _ := cmd.Flags().GetInt("limit")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		dartVar, _ := cmd.Flags().GetString("dart-var")

		records, err := venuefile.Read(in)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rev := geocode.NewNominatim(
			geocode.WithURL(cfg.Geocode.URL),
			geocode.WithUserAgent(cfg.Geocode.UserAgent),
			geocode.WithRateLimit(time.Duration(cfg.Geocode.RateLimitSecs*float64(time.Second))),
		)
		named, renamed, err := geocode.NewNamer(rev, st).Rename(ctx, records, limit)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Renamed %d of %d records\n", renamed, len(records))
		if dryRun {
			shown := 0
			for i := range named {
				if named[i].Name != records[i].Name && shown < 10 {
					fmt.Fprintf(os.Stdout, "  [%s] -> %s\n", named[i].ID, named[i].Name)
					shown++
				}
			}
			fmt.Fprintln(os.Stdout, "Dry run: no files written.")
			return nil
		}
		return venuefile.Write(out, named, venuefile.DartOptions{Variable: dartVar})
	},
}

func init() {
	nameCmd.Flags().String("in", "courts.json", "court survey to name")
	nameCmd.Flags().String("out", "courts_named.json", "where to write the named survey")
	nameCmd.Flags().Int("limit", 0, "look up at most this many courts (0 = all)")
	nameCmd.Flags().Bool("dry-run", false, "preview names without writing")
	nameCmd.Flags().String("dart-var", "mockCourtsData", "Dart variable name for .dart output")
	rootCmd.AddCommand(nameCmd)
}
