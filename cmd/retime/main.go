// Package main provides a one-shot retiming tool: it reads a waypoint
// request from JSON, computes the time-optimal trajectory, and writes the
// resampled result as JSON or CSV, with optional persistence and charts.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/waypoint-robotics/pathtime/db"
	"github.com/waypoint-robotics/pathtime/internal/config"
	"github.com/waypoint-robotics/pathtime/internal/jointtraj"
	"github.com/waypoint-robotics/pathtime/internal/retime"
	"github.com/waypoint-robotics/pathtime/internal/units"
	"github.com/waypoint-robotics/pathtime/internal/viz"
)

// Request is the input file schema: the joint set, the waypoint list and
// the per-joint limits.
type Request struct {
	JointNames []string              `json:"joint_names"`
	JointKinds []jointtraj.JointKind `json:"joint_kinds,omitempty"`
	Waypoints  [][]float64           `json:"waypoints"`
	Limits     jointtraj.Limits      `json:"limits"`
}

func main() {
	var (
		inputFile      = flag.String("input", "", "Input request JSON file (required)")
		configFile     = flag.String("config", "", "Tuning config JSON file")
		pathTolerance  = flag.Float64("path-tolerance", 0, "Maximum blend deviation (overrides config)")
		resampleDt     = flag.Float64("resample-dt", 0, "Output sample interval in seconds (overrides config)")
		minAngleChange = flag.Float64("min-angle-change", 0, "Waypoint pre-filter threshold (overrides config)")
		velScale       = flag.Float64("vel-scale", 1.0, "Velocity scaling factor in (0, 1]")
		accScale       = flag.Float64("acc-scale", 1.0, "Acceleration scaling factor in (0, 1]")
		angleUnits     = flag.String("angle-units", units.RAD, "Units of input waypoints: rad or deg")
		format         = flag.String("format", "json", "Output format: json or csv")
		outFile        = flag.String("out", "", "Output file (default stdout)")
		dbFile         = flag.String("db", "", "Persist the run to this SQLite database")
		chartFile      = flag.String("chart", "", "Write an HTML profile page to this file")
		phasePNG       = flag.String("phase-png", "", "Write a phase-plane PNG to this file")
	)
	flag.Parse()

	if *inputFile == "" {
		flag.Usage()
		log.Fatal("[retime] -input is required")
	}
	if !units.IsValidAngleUnit(*angleUnits) {
		log.Fatalf("[retime] invalid -angle-units %q (valid: %v)", *angleUnits, units.ValidAngleUnits)
	}
	if *format != "json" && *format != "csv" {
		log.Fatalf("[retime] invalid -format %q (valid: json, csv)", *format)
	}

	data, err := os.ReadFile(*inputFile)
	if err != nil {
		log.Fatalf("[retime] failed to read input: %v", err)
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		log.Fatalf("[retime] failed to parse input: %v", err)
	}

	cfg := config.DefaultTuningConfig()
	if *configFile != "" {
		if cfg, err = config.LoadTuningConfig(*configFile); err != nil {
			log.Fatalf("[retime] failed to load config: %v", err)
		}
	}

	tolerance := cfg.GetPathTolerance()
	if *pathTolerance > 0 {
		tolerance = *pathTolerance
	}
	dt := cfg.GetResampleDt()
	if *resampleDt > 0 {
		dt = *resampleDt
	}
	minChange := cfg.GetMinAngleChange()
	if *minAngleChange > 0 {
		minChange = *minAngleChange
	}

	traj := &jointtraj.Trajectory{JointNames: req.JointNames, JointKinds: req.JointKinds}
	for _, wp := range req.Waypoints {
		positions := make([]float64, len(wp))
		for i, v := range wp {
			positions[i] = units.ToRadians(v, *angleUnits)
		}
		traj.Points = append(traj.Points, jointtraj.Point{Positions: positions})
	}

	p := retime.New(tolerance, dt, minChange)
	p.TimeStep = cfg.GetTimeStep()

	optimal, err := p.Solve(traj, req.Limits, *velScale, *accScale)
	if err != nil {
		log.Fatalf("[retime] %v", err)
	}
	if optimal == nil {
		log.Fatal("[retime] input has fewer than two distinct waypoints")
	}
	p.Resample(traj, optimal)

	log.Printf("[retime] retimed %d waypoints over %d joints: duration %.3fs, path length %.4f",
		len(req.Waypoints), len(req.JointNames), optimal.Duration(), optimal.PathLength())

	out := io.Writer(os.Stdout)
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			log.Fatalf("[retime] failed to create output: %v", err)
		}
		defer f.Close()
		out = f
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(traj); err != nil {
			log.Fatalf("[retime] failed to write output: %v", err)
		}
	case "csv":
		if err := writeCSV(out, traj); err != nil {
			log.Fatalf("[retime] failed to write output: %v", err)
		}
	}

	if *dbFile != "" {
		store, err := db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("[retime] failed to open database: %v", err)
		}
		defer store.Close()
		runID, err := store.InsertRun(&db.Run{
			JointNames: req.JointNames,
			ParamsJSON: data,
			Duration:   traj.Duration(),
		}, traj.Points)
		if err != nil {
			log.Fatalf("[retime] failed to persist run: %v", err)
		}
		log.Printf("[retime] persisted run %s", runID)
	}

	if *chartFile != "" || *phasePNG != "" {
		profile := viz.ProfileFromTrajectory("retime "+*inputFile, req.JointNames, optimal, traj.Points)
		if *chartFile != "" {
			f, err := os.Create(*chartFile)
			if err != nil {
				log.Fatalf("[retime] failed to create chart file: %v", err)
			}
			if err := profile.RenderHTML(f); err != nil {
				log.Fatalf("[retime] failed to render chart: %v", err)
			}
			f.Close()
			log.Printf("[retime] wrote chart to %s", *chartFile)
		}
		if *phasePNG != "" {
			if err := profile.SavePhasePlanePNG(*phasePNG); err != nil {
				log.Fatalf("[retime] failed to render phase plot: %v", err)
			}
			log.Printf("[retime] wrote phase plot to %s", *phasePNG)
		}
	}
}

// writeCSV emits one row per sample: time, then positions, velocities and
// accelerations grouped per joint.
func writeCSV(out io.Writer, traj *jointtraj.Trajectory) error {
	w := csv.NewWriter(out)
	header := []string{"time_from_start"}
	for _, name := range traj.JointNames {
		header = append(header, name+"_pos", name+"_vel", name+"_acc")
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, pt := range traj.Points {
		row := []string{strconv.FormatFloat(pt.TimeFromStart, 'g', -1, 64)}
		for j := range traj.JointNames {
			row = append(row,
				strconv.FormatFloat(pt.Positions[j], 'g', -1, 64),
				strconv.FormatFloat(pt.Velocities[j], 'g', -1, 64),
				strconv.FormatFloat(pt.Accelerations[j], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
