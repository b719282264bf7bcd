// Package main renders profile charts for a retiming run stored in the
// SQLite run database: an HTML page with the phase-plane and joint time
// series, and optionally a standalone phase-plane PNG.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	_ "modernc.org/sqlite"

	"github.com/waypoint-robotics/pathtime/db"
	"github.com/waypoint-robotics/pathtime/internal/viz"
)

func main() {
	var (
		dbFile   = flag.String("db", "pathtime.db", "SQLite run database")
		runID    = flag.String("run", "", "Run ID to plot (default: most recent)")
		htmlFile = flag.String("html", "", "Output HTML file")
		pngFile  = flag.String("png", "", "Output phase-plane PNG file")
		list     = flag.Bool("list", false, "List stored runs and exit")
	)
	flag.Parse()

	store, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("[profile-plot] failed to open database %s: %v", *dbFile, err)
	}
	defer store.Close()

	if *list {
		runs, err := store.ListRuns(50)
		if err != nil {
			log.Fatalf("[profile-plot] failed to list runs: %v", err)
		}
		for _, run := range runs {
			fmt.Printf("%s  joints=%d  duration=%.3fs\n", run.RunID, len(run.JointNames), run.Duration)
		}
		return
	}

	if *htmlFile == "" && *pngFile == "" {
		flag.Usage()
		log.Fatal("[profile-plot] need -html or -png (or -list)")
	}

	run, err := resolveRun(store, *runID)
	if err != nil {
		log.Fatalf("[profile-plot] %v", err)
	}

	points, err := store.Samples(run.RunID)
	if err != nil {
		log.Fatalf("[profile-plot] failed to load samples: %v", err)
	}
	if len(points) == 0 {
		log.Fatalf("[profile-plot] run %s has no samples", run.RunID)
	}

	profile := viz.ProfileFromPoints(fmt.Sprintf("run %s", run.RunID), run.JointNames, points)

	if *htmlFile != "" {
		f, err := os.Create(*htmlFile)
		if err != nil {
			log.Fatalf("[profile-plot] failed to create %s: %v", *htmlFile, err)
		}
		if err := profile.RenderHTML(f); err != nil {
			log.Fatalf("[profile-plot] failed to render HTML: %v", err)
		}
		f.Close()
		log.Printf("[profile-plot] wrote %s", *htmlFile)
	}

	if *pngFile != "" {
		if err := profile.SavePhasePlanePNG(*pngFile); err != nil {
			log.Fatalf("[profile-plot] failed to render PNG: %v", err)
		}
		log.Printf("[profile-plot] wrote %s", *pngFile)
	}
}

func resolveRun(store *db.DB, runID string) (*db.Run, error) {
	if runID != "" {
		run, err := store.GetRun(runID)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
		}
		return run, nil
	}
	runs, err := store.ListRuns(1)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("database has no runs")
	}
	return &runs[0], nil
}
