package delta

import (
	"time"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
)

// Dead-bands for trend classification. Body fat is stored as a fraction, so
// 0.001 corresponds to 0.1 percentage points.
const (
	bfDeadband  = 0.001
	lbmDeadband = 0.1
)

// Sample is one completed scan reduced to the numbers the engine needs.
type Sample struct {
	Date      time.Time
	BFPercent float64
	LBMLb     float64
	WeightLb  float64
}

// Compute derives the delta object for the current scan. prev and prev2 are
// the one and two most recent prior completed scans (nil when absent).
// history holds up to the 7 most recent completed samples including the
// current one, ascending by date, and feeds the rolling slope.
func Compute(current Sample, prev, prev2 *Sample, history []Sample) scan.Delta {
	d := scan.Delta{}
	if prev != nil {
		d.BFD1 = diff(current.BFPercent, prev.BFPercent)
		d.LBMD1 = diff(current.LBMLb, prev.LBMLb)
		d.WeightD1 = diff(current.WeightLb, prev.WeightLb)
	}
	if prev2 != nil {
		d.BFD2 = diff(current.BFPercent, prev2.BFPercent)
	}
	d.Slope7Day = Slope(history)
	d.Trend = Classify(d.BFD1, d.LBMD1)
	return d
}

func diff(a, b float64) *float64 {
	v := a - b
	return &v
}

// Slope is the least-squares slope of bf% over (daysSinceFirst, bfPercent)
// pairs. It works on available data points, not calendar days, and returns
// nil for fewer than 2 points or a degenerate x spread.
func Slope(points []Sample) *float64 {
	if len(points) < 2 {
		return nil
	}
	first := points[0].Date
	n := float64(len(points))
	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		x := p.Date.Sub(first).Hours() / 24
		y := p.BFPercent
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}
	s := (n*sumXY - sumX*sumY) / denom
	return &s
}

// Classify maps day-1 deltas onto improving/declining/stable. Decreasing body
// fat or increasing lean mass beyond the dead-band is improving; the inverse
// is declining; inside the dead-band (or with no prior scan) it is stable.
// Body fat decides first; lean mass only breaks bf ties inside the dead-band.
func Classify(bfD1, lbmD1 *float64) string {
	if bfD1 != nil {
		if *bfD1 < -bfDeadband {
			return scan.TrendImproving
		}
		if *bfD1 > bfDeadband {
			return scan.TrendDeclining
		}
	}
	if lbmD1 != nil {
		if *lbmD1 > lbmDeadband {
			return scan.TrendImproving
		}
		if *lbmD1 < -lbmDeadband {
			return scan.TrendDeclining
		}
	}
	return scan.TrendStable
}
