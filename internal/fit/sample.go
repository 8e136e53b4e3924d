package fit

import "math"

// DefaultSamples is the number of steps used to sample a curve for plotting.
const DefaultSamples = 200

// plotPadding is the share of the data range added on each side of a plot.
const plotPadding = 0.1

// PlotRange is the rectangle a point set should be drawn in.
type PlotRange struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

// RangeFor pads the bounding box of points by 10% of its extent on every
// side. Extents below 1 count as 1; an empty set spans 0..10 on both axes.
func RangeFor(points []Point) PlotRange {
	minX, maxX, minY, maxY := 0.0, 10.0, 0.0, 10.0
	if len(points) > 0 {
		minX, maxX = math.Inf(1), math.Inf(-1)
		minY, maxY = math.Inf(1), math.Inf(-1)
		for _, p := range points {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}

	xRange := math.Max(1, maxX-minX)
	yRange := math.Max(1, maxY-minY)
	return PlotRange{
		MinX: minX - xRange*plotPadding,
		MaxX: maxX + xRange*plotPadding,
		MinY: minY - yRange*plotPadding,
		MaxY: maxY + yRange*plotPadding,
	}
}

// Sample evaluates eval at steps+1 evenly spaced x values from lo to hi
// inclusive. Undefined or infinite values are left out so a plot can simply
// skip them.
func Sample(eval Evaluator, lo, hi float64, steps int) []Point {
	if eval == nil || steps < 1 || hi < lo {
		return nil
	}
	step := (hi - lo) / float64(steps)
	out := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		x := lo + float64(i)*step
		if y := eval(x); finite(y) {
			out = append(out, Point{X: x, Y: y})
		}
	}
	return out
}

// Curve samples a report's model across the plot range of points. Nothing is
// sampled when the report is nil or its model is undefined at the first point.
func Curve(r *Report, points []Point, steps int) (PlotRange, []Point) {
	pr := RangeFor(points)
	if r == nil || len(points) < 2 || math.IsNaN(r.Evaluator()(points[0].X)) {
		return pr, nil
	}
	return pr, Sample(r.Evaluator(), pr.MinX, pr.MaxX, steps)
}
