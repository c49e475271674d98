// Command kwmetrics processes a keyword export from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"kwmetrics/internal/analysis"
	"kwmetrics/internal/config"
	"kwmetrics/internal/ingest"
	"kwmetrics/internal/logging"
	"kwmetrics/internal/store"
)

func main() {
	in := flag.String("in", "", "keyword export to process (CSV)")
	project := flag.String("project", "", "project name")
	dataDir := flag.String("data-dir", ".", "directory for <project>_keywords.db")
	profilePath := flag.String("profile", "profile.yaml", "ingest profile (YAML)")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logging.Configure(logging.Options{Level: *logLevel})

	if *in == "" || *project == "" {
		flag.Usage()
		os.Exit(2)
	}

	profile, err := config.LoadProfile(*profilePath)
	if err != nil {
		log.Fatalf("Failed to load ingest profile: %v", err)
	}
	st, err := store.New(*dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize data dir: %v", err)
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *in, err)
	}
	defer f.Close()

	svc := ingest.New(ingest.Config{
		Store:       st,
		Transformer: analysis.NewTransformer(profile.TransformOptions()),
		ReadOptions: profile.ReadOptions(),
		Strict:      true,
	})
	res, err := svc.Process(context.Background(), ingest.Request{
		Project:  *project,
		Filename: *in,
		Body:     f,
	})
	if err != nil {
		log.Fatalf("Failed to process %s: %v", *in, err)
	}

	fmt.Println(res.Message())
	for _, c := range res.Categories {
		fmt.Printf("  %-28s %d\n", c.Name, c.Rows)
	}
}
