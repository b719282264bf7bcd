// Package db persists retiming runs and their sampled trajectories in
// SQLite. Binaries that open a DB must blank-import modernc.org/sqlite to
// register the driver.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/waypoint-robotics/pathtime/internal/jointtraj"
)

type DB struct {
	*sql.DB
}

// NewDB opens (and if necessary creates) the run store at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			joint_names TEXT NOT NULL,
			params_json TEXT,
			duration DOUBLE NOT NULL
		);
		CREATE TABLE IF NOT EXISTS samples (
			run_id TEXT NOT NULL,
			sample_idx INTEGER NOT NULL,
			time_from_start DOUBLE NOT NULL,
			positions TEXT NOT NULL,
			velocities TEXT NOT NULL,
			accelerations TEXT NOT NULL,
			PRIMARY KEY(run_id, sample_idx),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Run is a persisted retiming result: the request parameters and the
// resulting optimal duration. Samples are stored separately.
type Run struct {
	RunID      string          `json:"run_id"`
	CreatedAt  int64           `json:"created_at"`
	JointNames []string        `json:"joint_names"`
	ParamsJSON json.RawMessage `json:"params_json,omitempty"`
	Duration   float64         `json:"duration"`
}

// InsertRun persists a run and its samples. If RunID is empty a UUID is
// generated. Returns the run ID.
func (db *DB) InsertRun(run *Run, points []jointtraj.Point) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	names, err := json.Marshal(run.JointNames)
	if err != nil {
		return "", fmt.Errorf("marshal joint names: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var params interface{}
	if len(run.ParamsJSON) > 0 {
		params = string(run.ParamsJSON)
	}
	_, err = tx.Exec(`INSERT INTO runs (run_id, created_at, joint_names, params_json, duration) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt, string(names), params, run.Duration)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO samples (run_id, sample_idx, time_from_start, positions, velocities, accelerations) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, pt := range points {
		positions, err := json.Marshal(pt.Positions)
		if err != nil {
			return "", err
		}
		velocities, err := json.Marshal(pt.Velocities)
		if err != nil {
			return "", err
		}
		accelerations, err := json.Marshal(pt.Accelerations)
		if err != nil {
			return "", err
		}
		if _, err := stmt.Exec(run.RunID, i, pt.TimeFromStart, string(positions), string(velocities), string(accelerations)); err != nil {
			return "", fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.RunID, nil
}

// GetRun fetches a run by ID. Returns sql.ErrNoRows if absent.
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.QueryRow(`SELECT run_id, created_at, joint_names, params_json, duration FROM runs WHERE run_id = ?`, runID)

	var run Run
	var names string
	var params sql.NullString
	if err := row.Scan(&run.RunID, &run.CreatedAt, &names, &params, &run.Duration); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(names), &run.JointNames); err != nil {
		return nil, fmt.Errorf("unmarshal joint names: %w", err)
	}
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`SELECT run_id, created_at, joint_names, params_json, duration FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var names string
		var params sql.NullString
		if err := rows.Scan(&run.RunID, &run.CreatedAt, &names, &params, &run.Duration); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(names), &run.JointNames); err != nil {
			return nil, fmt.Errorf("unmarshal joint names: %w", err)
		}
		if params.Valid {
			run.ParamsJSON = json.RawMessage(params.String)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Samples fetches the sampled trajectory of a run in time order.
func (db *DB) Samples(runID string) ([]jointtraj.Point, error) {
	rows, err := db.Query(`SELECT time_from_start, positions, velocities, accelerations FROM samples WHERE run_id = ? ORDER BY sample_idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []jointtraj.Point
	for rows.Next() {
		var pt jointtraj.Point
		var positions, velocities, accelerations string
		if err := rows.Scan(&pt.TimeFromStart, &positions, &velocities, &accelerations); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(positions), &pt.Positions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(velocities), &pt.Velocities); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(accelerations), &pt.Accelerations); err != nil {
			return nil, err
		}
		points = append(points, pt)
	}
	return points, rows.Err()
}

// DeleteRun removes a run and its samples.
func (db *DB) DeleteRun(runID string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM samples WHERE run_id = ?`, runID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE run_id = ?`, runID); err != nil {
		return err
	}
	return tx.Commit()
}
