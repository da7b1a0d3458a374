package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bcorbett503/HoopRank/internal/venue"
	"github.com/bcorbett503/HoopRank/internal/venuefile"
	"github.com/bcorbett503/HoopRank/pkg/overpass"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch indoor venue candidates from OpenStreetMap",
	Long:  "Queries the Overpass API for schools, colleges, sports centres, community centres and gymnasiums.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		region, _ := cmd.Flags().GetString("region")
		out, _ := cmd.Flags().GetString("out")
		rawTypes, _ := cmd.Flags().GetStringSlice("type")

		bbox, err := overpass.LookupRegion(region)
		if err != nil {
			return err
		}

		var types []overpass.VenueType
		for _, raw := range rawTypes {
			t, err := overpass.ParseVenueType(raw)
			if err != nil {
				return err
			}
			types = append(types, t)
		}

		client := overpass.NewClient(
			overpass.WithURL(cfg.Overpass.URL),
			overpass.WithLimit(cfg.Overpass.Limit),
			overpass.WithDelay(time.Duration(cfg.Overpass.DelaySecs*float64(time.Second))),
			overpass.WithHTTPClient(newHTTPClient(time.Duration(cfg.Overpass.TimeoutSecs)*time.Second)),
		)

		records, err := client.FetchVenues(ctx, bbox, types)
		if err != nil {
			return err
		}
		if err := venuefile.Write(out, records, venuefile.DartOptions{}); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Fetched %d venues for %s -> %s\n", len(records), region, out)
		for cat, n := range venue.CountByCategory(records) {
			fmt.Fprintf(os.Stdout, "  %s: %d\n", cat, n)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("region", "usa", "region to fetch (bay_area, california, usa, world)")
	fetchCmd.Flags().String("out", "indoor_gyms_data.dart", "output file (.dart, .json or .geojson)")
	fetchCmd.Flags().StringSlice("type", nil, "OSM tag to fetch as key=value (repeatable; default: all venue types)")
	rootCmd.AddCommand(fetchCmd)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
