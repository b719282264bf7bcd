// Package api exposes the retiming service over HTTP: a one-shot retime
// endpoint plus listing, retrieval and chart rendering for persisted runs.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/waypoint-robotics/pathtime/db"
	"github.com/waypoint-robotics/pathtime/internal/config"
	"github.com/waypoint-robotics/pathtime/internal/jointtraj"
	"github.com/waypoint-robotics/pathtime/internal/retime"
	"github.com/waypoint-robotics/pathtime/internal/totg"
	"github.com/waypoint-robotics/pathtime/internal/viz"
)

// Server handles the retiming HTTP API. The store may be nil, in which
// case persistence endpoints return 404s and retime requests cannot be
// persisted.
type Server struct {
	store *db.DB
	cfg   *config.TuningConfig
}

func NewServer(store *db.DB, cfg *config.TuningConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Server{store: store, cfg: cfg}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/retime", s.handleRetime)
	mux.HandleFunc("/api/runs", s.handleListRuns)
	mux.HandleFunc("/api/run", s.handleGetRun)
	mux.HandleFunc("/api/run/samples", s.handleRunSamples)
	mux.HandleFunc("/api/run/chart", s.handleRunChart)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] failed to encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RetimeRequest is the payload of POST /api/retime. Options left unset
// fall back to the server's configuration.
type RetimeRequest struct {
	JointNames []string              `json:"joint_names"`
	JointKinds []jointtraj.JointKind `json:"joint_kinds,omitempty"`
	Waypoints  [][]float64           `json:"waypoints"`
	Limits     jointtraj.Limits      `json:"limits"`

	PathTolerance  *float64 `json:"path_tolerance,omitempty"`
	ResampleDt     *float64 `json:"resample_dt,omitempty"`
	MinAngleChange *float64 `json:"min_angle_change,omitempty"`

	VelocityScalingFactor     *float64 `json:"velocity_scaling_factor,omitempty"`
	AccelerationScalingFactor *float64 `json:"acceleration_scaling_factor,omitempty"`

	// Persist stores the run and its samples; the response then carries
	// the run ID.
	Persist bool `json:"persist,omitempty"`
}

// RetimeResponse is the reply to a successful retime request.
type RetimeResponse struct {
	RunID    string            `json:"run_id,omitempty"`
	Duration float64           `json:"duration"`
	Points   []jointtraj.Point `json:"points"`
}

func (s *Server) parameterization(req *RetimeRequest) *retime.Parameterization {
	pathTolerance := s.cfg.GetPathTolerance()
	if req.PathTolerance != nil {
		pathTolerance = *req.PathTolerance
	}
	resampleDt := s.cfg.GetResampleDt()
	if req.ResampleDt != nil {
		resampleDt = *req.ResampleDt
	}
	minAngleChange := s.cfg.GetMinAngleChange()
	if req.MinAngleChange != nil {
		minAngleChange = *req.MinAngleChange
	}
	p := retime.New(pathTolerance, resampleDt, minAngleChange)
	p.TimeStep = s.cfg.GetTimeStep()
	return p
}

func (s *Server) handleRetime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RetimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	traj := &jointtraj.Trajectory{JointNames: req.JointNames, JointKinds: req.JointKinds}
	for _, wp := range req.Waypoints {
		traj.Points = append(traj.Points, jointtraj.Point{Positions: wp})
	}

	velocityScale := s.cfg.GetMaxVelocityScalingFactor()
	if req.VelocityScalingFactor != nil {
		velocityScale = *req.VelocityScalingFactor
	}
	accelerationScale := s.cfg.GetMaxAccelerationScalingFactor()
	if req.AccelerationScalingFactor != nil {
		accelerationScale = *req.AccelerationScalingFactor
	}

	if err := s.parameterization(&req).ComputeTimeStamps(traj, req.Limits, velocityScale, accelerationScale); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, totg.ErrInfeasiblePath) {
			status = http.StatusUnprocessableEntity
		}
		s.writeJSONError(w, status, err.Error())
		return
	}

	resp := RetimeResponse{Duration: traj.Duration(), Points: traj.Points}

	if req.Persist {
		if s.store == nil {
			s.writeJSONError(w, http.StatusServiceUnavailable, "persistence is not configured")
			return
		}
		params, err := json.Marshal(&req)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("marshal params: %v", err))
			return
		}
		runID, err := s.store.InsertRun(&db.Run{
			JointNames: req.JointNames,
			ParamsJSON: params,
			Duration:   traj.Duration(),
		}, traj.Points)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("persist run: %v", err))
			return
		}
		resp.RunID = runID
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		s.writeJSONError(w, http.StatusNotFound, "persistence is not configured")
		return
	}
	runs, err := s.store.ListRuns(50)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

// loadRun resolves the id query parameter to a stored run, writing the
// error response itself when it returns nil.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) *db.Run {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil
	}
	if s.store == nil {
		s.writeJSONError(w, http.StatusNotFound, "persistence is not configured")
		return nil
	}
	runID := r.URL.Query().Get("id")
	if runID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing id parameter")
		return nil
	}
	run, err := s.store.GetRun(runID)
	if errors.Is(err, sql.ErrNoRows) {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no run %s", runID))
		return nil
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get run: %v", err))
		return nil
	}
	return run
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run := s.loadRun(w, r)
	if run == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunSamples(w http.ResponseWriter, r *http.Request) {
	run := s.loadRun(w, r)
	if run == nil {
		return
	}
	points, err := s.store.Samples(run.RunID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("load samples: %v", err))
		return
	}
	if points == nil {
		points = []jointtraj.Point{}
	}
	s.writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleRunChart(w http.ResponseWriter, r *http.Request) {
	run := s.loadRun(w, r)
	if run == nil {
		return
	}
	points, err := s.store.Samples(run.RunID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("load samples: %v", err))
		return
	}
	if len(points) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "run has no samples")
		return
	}

	profile := viz.ProfileFromPoints(fmt.Sprintf("run %s", run.RunID), run.JointNames, points)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := profile.RenderHTML(w); err != nil {
		log.Printf("[api] failed to render chart for run %s: %v", run.RunID, err)
	}
}
