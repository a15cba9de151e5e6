package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/distress-leads/internal/ccodsync"
	"github.com/distress-leads/internal/config"
	"github.com/distress-leads/internal/db"
	"github.com/distress-leads/internal/gazette"
	"github.com/distress-leads/internal/ledger"
	"github.com/distress-leads/internal/leadgen"
	"github.com/distress-leads/internal/matcher"
	"github.com/distress-leads/internal/registry"
	"github.com/distress-leads/internal/report"
	"github.com/distress-leads/internal/store"
)

var (
	// Global database connection
	dbConn *db.Connection
)

func main() {
	config.LoadEnv()

	var err error
	dbConn, err = db.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	rootCmd := &cobra.Command{
		Use:   "leads",
		Short: "Distress Leads Generation System",
		Long:  `Matches insolvency notices against Land Registry corporate ownership data to surface distressed-property leads`,
	}

	rootCmd.AddCommand(createPingCmd())
	rootCmd.AddCommand(createInitDBCmd())
	rootCmd.AddCommand(createSyncCmd())
	rootCmd.AddCommand(createEnrichCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Database connection successful!")

			var count int
			err := dbConn.DB.QueryRow("SELECT COUNT(*) FROM ccod_property").Scan(&count)
			if err != nil {
				log.Printf("Error counting ccod_property records: %v", err)
			} else {
				fmt.Printf("Property records loaded: %d\n", count)
			}

			err = dbConn.DB.QueryRow("SELECT COUNT(*) FROM lead_ledger").Scan(&count)
			if err != nil {
				log.Printf("Error counting lead_ledger records: %v", err)
			} else {
				fmt.Printf("Surfaced lead pairs: %d\n", count)
			}
		},
	}
}

// createInitDBCmd creates the schema bootstrap command
func createInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create tables, indexes and the pg_trgm extension",
		Run: func(cmd *cobra.Command, args []string) {
			if err := db.EnsureSchema(dbConn.DB); err != nil {
				log.Fatalf("Failed to initialize schema: %v", err)
			}
			fmt.Println("Schema initialized")
		},
	}
}

// createSyncCmd creates the CCOD bulk-load command
func createSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [ccod-file]",
		Short: "Load a CCOD extract (zip or csv) into the property store",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := args[0]
			syncer := ccodsync.NewSyncer(store.NewPostgresStore(dbConn.DB))

			var written int
			var err error
			if strings.HasSuffix(strings.ToLower(path), ".zip") {
				written, err = syncer.LoadZip(cmd.Context(), path)
			} else {
				var f *os.File
				f, err = os.Open(path)
				if err != nil {
					log.Fatalf("Failed to open CCOD file: %v", err)
				}
				defer f.Close()
				written, err = syncer.LoadCSV(cmd.Context(), f)
			}
			if err != nil {
				log.Fatalf("CCOD sync failed: %v", err)
			}
			fmt.Printf("CCOD sync complete: %d records written\n", written)
		},
	}
}

// createEnrichCmd creates the gazette enrichment command
func createEnrichCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "enrich [gazette-csv]",
		Short: "Match insolvency notices against the property store and write new leads",
		Long:  `Parses a Gazette insolvency notice CSV, finds matching property records, filters out previously surfaced leads and writes the remainder to a report CSV`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			f, err := os.Open(args[0])
			if err != nil {
				log.Fatalf("Failed to open gazette file: %v", err)
			}
			defer f.Close()

			subjects, err := gazette.ParseCSV(f)
			if err != nil {
				log.Fatalf("Failed to parse gazette file: %v", err)
			}
			fmt.Printf("Parsed %d insolvency subjects\n", len(subjects))

			out, err := os.Create(outFile)
			if err != nil {
				log.Fatalf("Failed to create output file: %v", err)
			}
			defer out.Close()

			var resolver matcher.NumberResolver
			if apiKey := config.GetEnv("COMPANIES_HOUSE_API_KEY", ""); apiKey != "" {
				resolver = registry.NewClient(apiKey)
			}

			propertyStore := store.NewPostgresStore(dbConn.DB)
			m := matcher.New(propertyStore, resolver, config.MatcherThresholds())
			assembler := leadgen.NewAssembler(ledger.NewPostgresLedger(dbConn.DB))
			pipeline := leadgen.NewPipeline(m, assembler, report.NewCSVWriter(out))

			summary, err := pipeline.Run(context.Background(), subjects)
			if err != nil {
				log.Fatalf("Enrichment run failed: %v", err)
			}

			fmt.Printf("Run %s complete\n", summary.RunID)
			fmt.Printf("  Subjects:  %d\n", summary.Subjects)
			fmt.Printf("  Skipped:   %d\n", summary.Skipped)
			fmt.Printf("  Matched:   %d\n", summary.Matched)
			fmt.Printf("  Delivered: %d\n", summary.Delivered)
			fmt.Printf("  Retained:  %d\n", summary.Retained)
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "leads.csv", "Output CSV file for new leads")
	return cmd
}
