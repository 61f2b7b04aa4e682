package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/landreg-pipeline/internal/config"
	"github.com/landreg-pipeline/internal/export"
	"github.com/landreg-pipeline/internal/merge"
	"github.com/landreg-pipeline/internal/pipeline"
	"github.com/landreg-pipeline/internal/web"
)

func main() {
	config.LoadEnv()

	rootCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Land Registry price and deprivation merge pipeline",
		Long:  `Aggregates property transactions by postal geography, joins deprivation indicator polygons to postal districts and emits analysis-ready geospatial files`,
	}

	rootCmd.AddCommand(createGroupByCmd())
	rootCmd.AddCommand(createGeoMergeCmd())
	rootCmd.AddCommand(createExportCmd())
	rootCmd.AddCommand(createServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createGroupByCmd creates the transaction aggregation subcommand
func createGroupByCmd() *cobra.Command {
	var outDir string
	var partitions int

	cmd := &cobra.Command{
		Use:   "groupby [transactions.csv]",
		Short: "Aggregate transactions by postcode area, district and sector",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := pipeline.GroupByConfig{
				TransactionsCSV: args[0],
				OutDir:          outDir,
				Partitions:      partitions,
				Quality:         config.QualityParamsFromEnv(),
			}
			if err := pipeline.RunGroupBy(cfg); err != nil {
				log.Fatalf("Group-by stage failed: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "outputs", "output directory")
	cmd.Flags().IntVar(&partitions, "partitions", config.Partitions(), "number of worker partitions")
	return cmd
}

// createGeoMergeCmd creates the spatial merge subcommand
func createGeoMergeCmd() *cobra.Command {
	var districts, socio, districtStats, outDir string
	var year int

	cmd := &cobra.Command{
		Use:   "geomerge",
		Short: "Join deprivation areas to postal districts and merge with price aggregates",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := pipeline.GeoMergeConfig{
				DistrictsGeoJSON: districts,
				SocioGeoJSON:     socio,
				DistrictStatsCSV: districtStats,
				OutDir:           outDir,
				CurrentYear:      year,
			}
			if err := pipeline.RunGeoMerge(cfg); err != nil {
				log.Fatalf("Geo-merge stage failed: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&districts, "districts", "PostalDistrict.geojson", "postal district polygons (EPSG:27700)")
	cmd.Flags().StringVar(&socio, "socio", "IMD_2019.geojson", "deprivation area polygons (EPSG:4326)")
	cmd.Flags().StringVar(&districtStats, "district-stats", "outputs/district_transaction_groupby.csv", "district transaction aggregate CSV")
	cmd.Flags().StringVar(&outDir, "out", "outputs", "output directory")
	cmd.Flags().IntVar(&year, "year", config.CurrentYear(), "current year for the snapshot filter")
	return cmd
}

// createExportCmd creates the Postgres export subcommand
func createExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [district_transaction_groupby.csv]",
		Short: "Export district aggregates to Postgres",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rows, err := merge.ReadDistrictStats(args[0])
			if err != nil {
				log.Fatalf("Failed to read district stats: %v", err)
			}

			exporter, err := export.NewExporter()
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer exporter.Close()

			if err := exporter.ExportDistrictStats(rows); err != nil {
				log.Fatalf("Export failed: %v", err)
			}
		},
	}
}

// createServeCmd creates the read-only API subcommand
func createServeCmd() *cobra.Command {
	var host, dataDir string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the merged district snapshot over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			server, err := web.NewServer(web.Config{Host: host, Port: port, DataDir: dataDir})
			if err != nil {
				log.Fatalf("Failed to start server: %v", err)
			}
			if err := server.Start(); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "listen port")
	cmd.Flags().StringVar(&dataDir, "data", "outputs", "directory holding the geomerge outputs")
	return cmd
}
