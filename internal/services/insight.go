package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/clients/openai"
	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

// Thresholds for rule-based flags. Single-day changes past these bounds are
// physiologically implausible or worth a second look.
const (
	implausibleBFDropPerDay = 0.01 // 1 percentage point
	dangerWeightSwingLb     = 5.0
	lowConfidenceFloor      = 0.5
)

// InsightService turns the day's numbers into severity flags and a short
// natural-language summary. It never fails the pipeline: summary generation
// falls back to a templated sentence when the model is unavailable.
type InsightService interface {
	Generate(ctx context.Context, s *types.Scan, d scan.Delta, qc *types.QCResult) *types.ScanInsight
}

type insightService struct {
	log *logger.Logger
	ai  openai.Client // optional
}

func NewInsightService(baseLog *logger.Logger, ai openai.Client) InsightService {
	return &insightService{
		log: baseLog.With("service", "InsightService"),
		ai:  ai,
	}
}

func (s *insightService) Generate(ctx context.Context, sc *types.Scan, d scan.Delta, qc *types.QCResult) *types.ScanInsight {
	flags := buildFlags(d, sc, qc)
	summary := s.summarize(ctx, sc, d, flags)
	return &types.ScanInsight{Summary: summary, Flags: flags}
}

func buildFlags(d scan.Delta, sc *types.Scan, qc *types.QCResult) []types.InsightFlag {
	var flags []types.InsightFlag

	if d.BFD1 != nil && *d.BFD1 < -implausibleBFDropPerDay {
		flags = append(flags, types.InsightFlag{
			Severity: scan.SeverityWarning,
			Code:     "bf_drop_implausible",
			Message:  fmt.Sprintf("Body fat dropped %.1f points in one day; real fat loss is slower, so treat today's estimate as noisy.", -*d.BFD1*100),
		})
	}
	if d.WeightD1 != nil && abs(*d.WeightD1) > dangerWeightSwingLb {
		flags = append(flags, types.InsightFlag{
			Severity: scan.SeverityDanger,
			Code:     "weight_swing",
			Message:  fmt.Sprintf("Weight moved %.1f lb since yesterday. Check the log entry and weigh-in conditions.", *d.WeightD1),
		})
	}
	if sc.BFConfidence != nil && *sc.BFConfidence < lowConfidenceFloor {
		flags = append(flags, types.InsightFlag{
			Severity: scan.SeverityWarning,
			Code:     "low_confidence",
			Message:  "Today's estimate has low confidence. Better lighting and a consistent pose will tighten it up.",
		})
	}
	if qc != nil && !qc.IsValid {
		msg := "Photo quality check failed."
		if len(qc.Issues) > 0 {
			msg = "Photo quality check failed: " + strings.Join(qc.Issues, "; ") + "."
		}
		flags = append(flags, types.InsightFlag{
			Severity: scan.SeverityWarning,
			Code:     "qc_failed",
			Message:  msg,
		})
	}
	if len(flags) == 0 {
		flags = append(flags, types.InsightFlag{
			Severity: scan.SeverityOK,
			Code:     "all_clear",
			Message:  "Scan looks consistent with your recent history.",
		})
	}
	return flags
}

func (s *insightService) summarize(ctx context.Context, sc *types.Scan, d scan.Delta, flags []types.InsightFlag) string {
	fallback := templateSummary(sc, d)
	if s.ai == nil {
		return fallback
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today's scan for %s: weight %.1f lb", sc.Date, sc.WeightLb)
	if sc.BFPercent != nil {
		fmt.Fprintf(&b, ", body fat %.1f%%", *sc.BFPercent*100)
	}
	if sc.LBMLb != nil {
		fmt.Fprintf(&b, ", lean mass %.1f lb", *sc.LBMLb)
	}
	b.WriteString(".\n")
	if d.BFD1 != nil {
		fmt.Fprintf(&b, "Body fat changed %+.2f points vs yesterday.\n", *d.BFD1*100)
	}
	if d.WeightD1 != nil {
		fmt.Fprintf(&b, "Weight changed %+.1f lb vs yesterday.\n", *d.WeightD1)
	}
	fmt.Fprintf(&b, "Trend: %s.\n", d.Trend)
	for _, f := range flags {
		fmt.Fprintf(&b, "Flag (%s): %s\n", f.Severity, f.Message)
	}
	b.WriteString("Write a 1-2 sentence summary for the user. Plain, encouraging, no medical advice.")

	summary, err := s.ai.GenerateText(ctx, "You write one-line daily check-in summaries for a body scan app.", b.String())
	if err != nil || strings.TrimSpace(summary) == "" {
		if err != nil {
			s.log.Warn("Insight summary generation failed; using fallback", "scan_id", sc.ID, "error", err)
		}
		return fallback
	}
	return strings.TrimSpace(summary)
}

func templateSummary(sc *types.Scan, d scan.Delta) string {
	switch d.Trend {
	case scan.TrendImproving:
		return "Trending in the right direction compared to yesterday. Keep it up."
	case scan.TrendDeclining:
		return "Numbers moved the wrong way versus yesterday. One day is noise; watch the weekly trend."
	default:
		if d.BFD1 == nil {
			return fmt.Sprintf("First scan on record at %.1f lb. Tomorrow's scan starts your trend.", sc.WeightLb)
		}
		return "Holding steady versus yesterday."
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
