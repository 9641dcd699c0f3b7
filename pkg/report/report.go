package report

import (
	"fmt"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"github.com/harrisonrobin/evertask/pkg/view"
)

// Slice is one wedge of the completion pie chart.
type Slice struct {
	Label   string
	Count   int
	Percent float64
}

// Slices converts report counts to pie percentages, keeping bucket order.
// An empty report has no slices.
func Slices(r view.Report) []Slice {
	total := r.Total()
	if total == 0 {
		return nil
	}
	out := make([]Slice, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		out = append(out, Slice{
			Label:   b.Name,
			Count:   b.Count,
			Percent: float64(b.Count) * 100 / float64(total),
		})
	}
	return out
}

var palette = [][3]int{
	{66, 133, 244}, {219, 68, 55}, {244, 180, 0}, {15, 157, 88},
	{171, 71, 188}, {0, 172, 193}, {255, 112, 67}, {158, 157, 36},
}

// completeColor is reserved for the Complete bucket so it reads the same
// across reports.
var completeColor = [3]int{120, 120, 120}

// WritePDF renders the report as a one-page PDF pie chart with a legend.
func WritePDF(w io.Writer, r view.Report, title string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, title)
	pdf.Ln(14)

	slices := Slices(r)
	if len(slices) == 0 {
		pdf.SetFont("Arial", "", 11)
		pdf.Cell(40, 8, "No tasks to report.")
		return pdf.Output(w)
	}

	const (
		cx, cy, radius = 105.0, 95.0, 60.0
	)
	start := -90.0
	colorIdx := 0
	for i, s := range slices {
		c := completeColor
		if s.Label != view.CompleteBucket {
			c = palette[colorIdx%len(palette)]
			colorIdx++
		}
		sweep := s.Percent * 3.6
		pdf.SetFillColor(c[0], c[1], c[2])
		pdf.SetDrawColor(255, 255, 255)
		if sweep >= 359.99 {
			pdf.Circle(cx, cy, radius, "F")
		} else {
			pdf.Polygon(wedge(cx, cy, radius, start, sweep), "FD")
		}
		start += sweep

		legendY := cy + radius + 12 + float64(i)*7
		pdf.Rect(20, legendY, 5, 5, "F")
		pdf.SetXY(28, legendY-1)
		pdf.SetFont("Arial", "", 11)
		pdf.SetTextColor(0, 0, 0)
		pdf.Cell(0, 7, fmt.Sprintf("%s: %d (%.1f%%)", s.Label, s.Count, s.Percent))
	}
	return pdf.Output(w)
}

// wedge approximates a pie sector as a polygon, one vertex per degree.
func wedge(cx, cy, r, startDeg, sweepDeg float64) []gofpdf.PointType {
	pts := []gofpdf.PointType{{X: cx, Y: cy}}
	steps := int(math.Ceil(sweepDeg))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		a := (startDeg + sweepDeg*float64(i)/float64(steps)) * math.Pi / 180
		pts = append(pts, gofpdf.PointType{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	return pts
}
