package jointtraj

import (
	"testing"
)

func twoJointTrajectory() *Trajectory {
	return &Trajectory{
		JointNames: []string{"shoulder", "elbow"},
		Points: []Point{
			{Positions: []float64{0, 0}},
			{Positions: []float64{1, 0}},
		},
	}
}

func TestValidate(t *testing.T) {
	if err := twoJointTrajectory().Validate(); err != nil {
		t.Fatalf("valid trajectory rejected: %v", err)
	}

	tests := []struct {
		name string
		mod  func(*Trajectory)
	}{
		{"no joints", func(tr *Trajectory) { tr.JointNames = nil }},
		{"no points", func(tr *Trajectory) { tr.Points = nil }},
		{"short point", func(tr *Trajectory) { tr.Points[1].Positions = []float64{1} }},
		{"kind count mismatch", func(tr *Trajectory) { tr.JointKinds = []JointKind{Revolute} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := twoJointTrajectory()
			tc.mod(tr)
			if err := tr.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWaypointsCopies(t *testing.T) {
	tr := twoJointTrajectory()
	waypoints := tr.Waypoints()
	waypoints[0][0] = 99
	if tr.Points[0].Positions[0] == 99 {
		t.Error("Waypoints aliases the underlying positions")
	}
}

func TestHasMixedJointKinds(t *testing.T) {
	tr := twoJointTrajectory()
	if tr.HasMixedJointKinds() {
		t.Error("no kinds declared should not count as mixed")
	}
	tr.JointKinds = []JointKind{Revolute, Revolute}
	if tr.HasMixedJointKinds() {
		t.Error("uniform kinds should not count as mixed")
	}
	tr.JointKinds = []JointKind{Revolute, Prismatic}
	if !tr.HasMixedJointKinds() {
		t.Error("revolute+prismatic should count as mixed")
	}
}

func TestLimitsResolve(t *testing.T) {
	limits := Limits{
		MaxVelocity:     map[string]float64{"shoulder": 1, "elbow": 2},
		MaxAcceleration: map[string]float64{"shoulder": 3, "elbow": 4},
	}

	maxVelocity, maxAcceleration, err := limits.Resolve([]string{"shoulder", "elbow"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if maxVelocity[1] != 2 || maxAcceleration[0] != 3 {
		t.Errorf("Resolve = %v, %v", maxVelocity, maxAcceleration)
	}

	if _, _, err := limits.Resolve([]string{"shoulder", "wrist"}); err == nil {
		t.Error("expected error for missing joint")
	}

	limits.MaxVelocity["elbow"] = 0
	if _, _, err := limits.Resolve([]string{"shoulder", "elbow"}); err == nil {
		t.Error("expected error for non-positive limit")
	}
}
