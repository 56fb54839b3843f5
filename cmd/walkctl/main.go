// walkctl runs the planning pipeline from the command line, without the
// HTTP service, printing results as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"walkroute/internal/api"
	"walkroute/internal/buildinfo"
	"walkroute/internal/config"
	"walkroute/internal/model"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "walkctl",
		Short:   "Walking route planning from the terminal",
		Version: buildinfo.Version,
	}
	root.AddCommand(planCmd(), poisCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServer() (*api.Server, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	return api.NewServer(cfg)
}

func planCmd() *cobra.Command {
	var (
		city     string
		start    string
		end      string
		extras   []string
		strategy string
		geometry bool
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute an optimized walking route",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newServer()
			if err != nil {
				return err
			}
			progress := func(stage, detail string) {
				if verbose {
					fmt.Fprintf(os.Stderr, "%-10s %s\n", stage, detail)
				}
			}
			plan, err := srv.Planner.Plan(context.Background(), uuid.NewString(), model.PlanRequest{
				City:     city,
				Start:    start,
				End:      end,
				Extras:   extras,
				Strategy: strategy,
				Geometry: geometry,
			}, progress)
			if err != nil {
				return err
			}
			return printJSON(plan)
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city the route stays inside")
	cmd.Flags().StringVar(&start, "start", "", "start address")
	cmd.Flags().StringVar(&end, "end", "", "destination address (defaults to start)")
	cmd.Flags().StringSliceVar(&extras, "stop", nil, "extra stop address (repeatable)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "solver strategy: local-search, guided, christofides")
	cmd.Flags().BoolVar(&geometry, "geometry", false, "include per-leg walking polylines")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline stages to stderr")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func poisCmd() *cobra.Command {
	var city string
	cmd := &cobra.Command{
		Use:   "pois",
		Short: "List points of interest discovered in a city",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newServer()
			if err != nil {
				return err
			}
			ctx := context.Background()
			var boxPtr *model.BoundingBox
			if box, ok := srv.Resolver.CityBBox(ctx, city); ok {
				boxPtr = &box
			}
			pois, err := srv.POIs.POIs(ctx, city, boxPtr)
			if err != nil {
				return err
			}
			return printJSON(pois)
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city to search")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return nil
}
