package report

import (
	"bytes"
	"math"
	"testing"

	"github.com/harrisonrobin/evertask/pkg/view"
)

func TestSlices(t *testing.T) {
	r := view.Report{Buckets: []view.Bucket{{Name: "Work", Count: 2}, {Name: "Complete", Count: 1}, {Name: "Home", Count: 1}}}
	slices := Slices(r)
	if len(slices) != 3 {
		t.Fatalf("Expected 3 slices, got %d", len(slices))
	}
	if slices[0].Label != "Work" || slices[0].Percent != 50 {
		t.Errorf("Expected Work at 50%%, got %+v", slices[0])
	}
	sum := 0.0
	for _, s := range slices {
		sum += s.Percent
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Errorf("Expected percentages to sum to 100, got %f", sum)
	}

	if got := Slices(view.Report{}); got != nil {
		t.Errorf("Expected no slices for an empty report, got %v", got)
	}
}

func TestWritePDF(t *testing.T) {
	reports := []view.Report{
		{Buckets: []view.Bucket{{Name: "Work", Count: 1}, {Name: "Complete", Count: 1}, {Name: "Home", Count: 1}}},
		{Buckets: []view.Bucket{{Name: "Complete", Count: 4}}},
		{},
	}
	for _, r := range reports {
		var buf bytes.Buffer
		if err := WritePDF(&buf, r, "Task Categories Report"); err != nil {
			t.Fatalf("WritePDF failed: %v", err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
			t.Errorf("Expected PDF header, got %q", buf.Bytes()[:min(8, buf.Len())])
		}
	}
}

func TestWedgeEndsOnArc(t *testing.T) {
	pts := wedge(0, 0, 10, 0, 90)
	last := pts[len(pts)-1]
	if math.Abs(last.X) > 1e-9 || math.Abs(last.Y-10) > 1e-9 {
		t.Errorf("Expected wedge to end at (0,10), got (%f,%f)", last.X, last.Y)
	}
}
