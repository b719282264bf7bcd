// Package viz renders retiming results for inspection: interactive HTML
// profile pages via go-echarts, and standalone PNG phase-plane plots via
// gonum/plot.
package viz

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/waypoint-robotics/pathtime/internal/jointtraj"
	"github.com/waypoint-robotics/pathtime/internal/totg"
)

// Profile bundles everything the charts need: the phase-plane steps the
// generator settled on, the limit curve evaluator, and the resampled
// joint-space output.
type Profile struct {
	Title      string
	JointNames []string
	Steps      []totg.ProfilePoint
	// LimitCurve evaluates the maximum feasible path velocity at an arc
	// length; nil omits the limit-curve series.
	LimitCurve func(s float64) float64
	PathLength float64
	Points     []jointtraj.Point
}

// ProfileFromTrajectory builds a Profile from a generated trajectory and
// its resampled output.
func ProfileFromTrajectory(title string, jointNames []string, traj *totg.Trajectory, points []jointtraj.Point) *Profile {
	return &Profile{
		Title:      title,
		JointNames: jointNames,
		Steps:      traj.Profile(),
		LimitCurve: traj.MaxPathVelocityAt,
		PathLength: traj.PathLength(),
		Points:     points,
	}
}

// ProfileFromPoints reconstructs a Profile from resampled output alone,
// for runs loaded from storage where the generator's internal profile is
// gone. The path velocity is recovered as the joint-velocity norm and the
// arc length by trapezoidal integration; no limit curve is available.
func ProfileFromPoints(title string, jointNames []string, points []jointtraj.Point) *Profile {
	steps := make([]totg.ProfilePoint, len(points))
	s := 0.0
	var lastVel, lastTime float64
	for i, pt := range points {
		vel := 0.0
		for _, v := range pt.Velocities {
			vel += v * v
		}
		vel = math.Sqrt(vel)
		if i > 0 {
			s += 0.5 * (vel + lastVel) * (pt.TimeFromStart - lastTime)
		}
		steps[i] = totg.ProfilePoint{Pos: s, Vel: vel, Time: pt.TimeFromStart}
		lastVel, lastTime = vel, pt.TimeFromStart
	}
	return &Profile{
		Title:      title,
		JointNames: jointNames,
		Steps:      steps,
		PathLength: s,
		Points:     points,
	}
}

// RenderHTML writes a self-contained HTML page with the phase-plane plot
// and per-joint position/velocity/acceleration time series.
func (p *Profile) RenderHTML(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = p.Title
	page.AddCharts(
		p.phasePlaneChart(),
		p.timeSeriesChart("Joint positions", func(pt jointtraj.Point) []float64 { return pt.Positions }),
		p.timeSeriesChart("Joint velocities", func(pt jointtraj.Point) []float64 { return pt.Velocities }),
		p.timeSeriesChart("Joint accelerations", func(pt jointtraj.Point) []float64 { return pt.Accelerations }),
	)
	return page.Render(w)
}

func (p *Profile) phasePlaneChart() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Phase plane", Subtitle: "path velocity over arc length"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "s (arc length)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ds/dt"}),
	)

	xs := make([]string, 0, len(p.Steps))
	profileData := make([]opts.LineData, 0, len(p.Steps))
	limitData := make([]opts.LineData, 0, len(p.Steps))
	for _, step := range p.Steps {
		xs = append(xs, fmt.Sprintf("%.4f", step.Pos))
		profileData = append(profileData, opts.LineData{Value: step.Vel})
		if p.LimitCurve != nil {
			s := step.Pos
			if s > p.PathLength {
				s = p.PathLength
			}
			limitData = append(limitData, opts.LineData{Value: p.LimitCurve(s)})
		}
	}

	line.SetXAxis(xs).AddSeries("profile", profileData)
	if p.LimitCurve != nil {
		line.AddSeries("limit curve", limitData)
	}
	return line
}

func (p *Profile) timeSeriesChart(title string, values func(jointtraj.Point) []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)

	xs := make([]string, 0, len(p.Points))
	for _, pt := range p.Points {
		xs = append(xs, fmt.Sprintf("%.2f", pt.TimeFromStart))
	}
	line.SetXAxis(xs)

	for j, name := range p.JointNames {
		data := make([]opts.LineData, 0, len(p.Points))
		for _, pt := range p.Points {
			vs := values(pt)
			if j < len(vs) {
				data = append(data, opts.LineData{Value: vs[j]})
			} else {
				data = append(data, opts.LineData{Value: 0.0})
			}
		}
		line.AddSeries(name, data)
	}
	return line
}

// SavePhasePlanePNG writes the phase-plane profile and limit curve to a
// PNG file.
func (p *Profile) SavePhasePlanePNG(path string) error {
	plt := plot.New()
	plt.Title.Text = p.Title
	plt.X.Label.Text = "s (arc length)"
	plt.Y.Label.Text = "path velocity"

	profilePts := make(plotter.XYs, 0, len(p.Steps))
	limitPts := make(plotter.XYs, 0, len(p.Steps))
	for _, step := range p.Steps {
		profilePts = append(profilePts, plotter.XY{X: step.Pos, Y: step.Vel})
		if p.LimitCurve != nil {
			s := step.Pos
			if s > p.PathLength {
				s = p.PathLength
			}
			limitPts = append(limitPts, plotter.XY{X: step.Pos, Y: p.LimitCurve(s)})
		}
	}

	profileLine, err := plotter.NewLine(profilePts)
	if err != nil {
		return fmt.Errorf("profile line: %w", err)
	}
	profileLine.Width = vg.Points(1)
	profileLine.Color = color.RGBA{B: 255, A: 255}
	plt.Add(profileLine)
	plt.Legend.Add("profile", profileLine)

	if p.LimitCurve != nil {
		limitLine, err := plotter.NewLine(limitPts)
		if err != nil {
			return fmt.Errorf("limit line: %w", err)
		}
		limitLine.Width = vg.Points(1)
		limitLine.Color = color.RGBA{R: 255, A: 255}
		plt.Add(limitLine)
		plt.Legend.Add("limit curve", limitLine)
	}

	return plt.Save(10*vg.Inch, 6*vg.Inch, path)
}
