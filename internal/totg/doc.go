// Package totg computes time-optimal trajectories along geometric paths
// through multi-joint configuration space, subject to per-joint velocity
// and acceleration limits.
//
// The generator works in two phases. NewPath converts an ordered list of
// waypoints into a C¹-continuous arc-length-parameterized curve by
// inserting circular blends at interior corners. NewTrajectory then solves
// the maximum-velocity profile along that curve by numerical integration
// in the (arc length, path velocity) phase plane, and exposes
// position/velocity/acceleration queries at arbitrary times.
//
// Key types: Path, Trajectory, PathSegment.
//
// This package never logs and performs no I/O; all failures surface as
// errors from the two factories. Callers attach their own diagnostic
// context.
package totg
