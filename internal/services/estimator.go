package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/clients/gcp"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/clients/openai"
	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/apperr"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

// EstimateContext is the optional profile context passed to the estimator.
// Zero values mean "unknown"; the estimator prompt degrades gracefully.
type EstimateContext struct {
	AgeYears int
	Gender   string
	HeightIn float64
}

// Estimate is the raw model output. LBM is recomputed server-side from the
// logged weight, never trusted from the model, so it is not part of this
// struct.
type Estimate struct {
	BFPercent     float64
	MusclePercent float64
	Confidence    float64
	Notes         string
}

// BodyCompositionEstimator runs the two AI passes of the scan pipeline:
// a photo quality check and a body-composition estimate over the four
// angle photos.
type BodyCompositionEstimator interface {
	QualityCheck(ctx context.Context, angleURLs map[string]string) (*types.QCResult, error)
	Estimate(ctx context.Context, angleURLs map[string]string, weightLb float64, ec EstimateContext) (*Estimate, error)
}

type aiEstimator struct {
	log      *logger.Logger
	ai       openai.Client
	lighting gcp.LightingAnalyzer // optional
}

// NewAIEstimator builds the vision-model estimator. The lighting analyzer is
// optional; when present its score replaces the model's lighting guess.
func NewAIEstimator(baseLog *logger.Logger, ai openai.Client, lighting gcp.LightingAnalyzer) BodyCompositionEstimator {
	return &aiEstimator{
		log:      baseLog.With("service", "BodyCompositionEstimator"),
		ai:       ai,
		lighting: lighting,
	}
}

var qcSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"is_valid", "pose_ok", "lighting_score", "clothing_score", "confidence", "issues", "notes"},
	"properties": map[string]any{
		"is_valid":       map[string]any{"type": "boolean"},
		"pose_ok":        map[string]any{"type": "boolean"},
		"lighting_score": map[string]any{"type": "number"},
		"clothing_score": map[string]any{"type": "number"},
		"confidence":     map[string]any{"type": "number"},
		"issues":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"notes":          map[string]any{"type": "string"},
	},
}

var estimateSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"bf_percent", "muscle_percent", "confidence", "notes"},
	"properties": map[string]any{
		"bf_percent":     map[string]any{"type": "number"},
		"muscle_percent": map[string]any{"type": "number"},
		"confidence":     map[string]any{"type": "number"},
		"notes":          map[string]any{"type": "string"},
	},
}

const qcSystemPrompt = `You are a photo quality reviewer for a daily body scan app.
The user submits four photos of themselves: front, back, left, right.
Judge whether the set is usable for visual body-composition estimation.
Score lighting and clothing fit in [0,1]. List concrete issues ("face not visible" is fine, "left photo too dark" etc.).
A set is valid when the person is fully in frame in a consistent pose with adequate lighting.`

const estimateSystemPrompt = `You are a body-composition estimator for a daily body scan app.
You receive four photos of the same person (front, back, left, right) taken today, plus their logged body weight and optional profile context.
Estimate body fat as a FRACTION between 0 and 1 (for example 0.20 for 20 percent), muscle mass percent as a fraction, and your confidence in [0,1].
Base the estimate only on what is visible; do not flatter the user.`

func (e *aiEstimator) QualityCheck(ctx context.Context, angleURLs map[string]string) (*types.QCResult, error) {
	images, err := orderedImages(angleURLs)
	if err != nil {
		return nil, err
	}
	user := "Review these four photos, in order: front, back, left, right."
	out, err := e.ai.GenerateJSONWithImages(ctx, qcSystemPrompt, user, "scan_quality_check", qcSchema, images)
	if err != nil {
		return nil, apperr.Transient("quality check", err)
	}

	qc := &types.QCResult{
		IsValid:       boolField(out, "is_valid"),
		PoseOK:        boolField(out, "pose_ok"),
		LightingScore: clamp01(floatField(out, "lighting_score")),
		ClothingScore: clamp01(floatField(out, "clothing_score")),
		Confidence:    clamp01(floatField(out, "confidence")),
		Issues:        stringSlice(out, "issues"),
		Notes:         stringField(out, "notes"),
	}

	if e.lighting != nil {
		if score, lerr := e.averageLighting(ctx, angleURLs); lerr == nil {
			qc.LightingScore = score
		} else {
			e.log.Warn("Lighting analysis failed; keeping model score", "error", lerr)
		}
	}
	return qc, nil
}

func (e *aiEstimator) averageLighting(ctx context.Context, angleURLs map[string]string) (float64, error) {
	var sum float64
	var n int
	for _, angle := range scan.Angles {
		url, ok := angleURLs[angle]
		if !ok {
			continue
		}
		score, err := e.lighting.LightingScore(ctx, url)
		if err != nil {
			return 0, err
		}
		sum += score
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("no angle photos to score")
	}
	return sum / float64(n), nil
}

func (e *aiEstimator) Estimate(ctx context.Context, angleURLs map[string]string, weightLb float64, ec EstimateContext) (*Estimate, error) {
	images, err := orderedImages(angleURLs)
	if err != nil {
		return nil, apperr.Estimation(err.Error())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Logged body weight today: %.1f lb.\n", weightLb)
	if ec.AgeYears > 0 {
		fmt.Fprintf(&b, "Age: %d years.\n", ec.AgeYears)
	}
	if ec.Gender != "" {
		fmt.Fprintf(&b, "Gender: %s.\n", ec.Gender)
	}
	if ec.HeightIn > 0 {
		fmt.Fprintf(&b, "Height: %.1f in.\n", ec.HeightIn)
	}
	b.WriteString("Photos in order: front, back, left, right. Estimate body composition.")

	out, err := e.ai.GenerateJSONWithImages(ctx, estimateSystemPrompt, b.String(), "body_composition_estimate", estimateSchema, images)
	if err != nil {
		return nil, apperr.Estimation(err.Error())
	}

	bf := floatField(out, "bf_percent")
	// Some models answer on a 0-100 scale despite the prompt.
	if bf > 1 && bf <= 100 {
		bf /= 100
	}
	if bf <= 0 || bf >= 1 {
		return nil, apperr.Estimation(fmt.Sprintf("body fat estimate out of range: %v", out["bf_percent"]))
	}
	muscle := floatField(out, "muscle_percent")
	if muscle > 1 && muscle <= 100 {
		muscle /= 100
	}

	return &Estimate{
		BFPercent:     bf,
		MusclePercent: clamp01(muscle),
		Confidence:    clamp01(floatField(out, "confidence")),
		Notes:         stringField(out, "notes"),
	}, nil
}

// staticEstimator is the dev-mode stand-in used when no model API key is
// configured. Deterministic numbers, plausible range, zero network.
type staticEstimator struct {
	log *logger.Logger
}

func NewStaticEstimator(baseLog *logger.Logger) BodyCompositionEstimator {
	return &staticEstimator{log: baseLog.With("service", "StaticEstimator")}
}

func (e *staticEstimator) QualityCheck(_ context.Context, angleURLs map[string]string) (*types.QCResult, error) {
	if _, err := orderedImages(angleURLs); err != nil {
		return nil, apperr.Transient("quality check", err)
	}
	return &types.QCResult{
		IsValid:       true,
		PoseOK:        true,
		LightingScore: 0.8,
		ClothingScore: 0.8,
		Confidence:    0.5,
		Notes:         "static estimator: no model configured",
	}, nil
}

func (e *staticEstimator) Estimate(_ context.Context, angleURLs map[string]string, weightLb float64, _ EstimateContext) (*Estimate, error) {
	if _, err := orderedImages(angleURLs); err != nil {
		return nil, apperr.Estimation(err.Error())
	}
	// Weight-seeded so repeated submissions of the same scan agree.
	bf := 0.15 + math.Mod(weightLb, 10)/100
	return &Estimate{
		BFPercent:     bf,
		MusclePercent: 0.40,
		Confidence:    0.3,
		Notes:         "static estimator: no model configured",
	}, nil
}

// orderedImages emits the four angle photos in a fixed order so prompts can
// reference them positionally.
func orderedImages(angleURLs map[string]string) ([]openai.ImageInput, error) {
	images := make([]openai.ImageInput, 0, len(scan.Angles))
	for _, angle := range scan.Angles {
		url, ok := angleURLs[angle]
		if !ok || url == "" {
			return nil, fmt.Errorf("missing %s photo url", angle)
		}
		images = append(images, openai.ImageInput{ImageURL: url, Detail: "high"})
	}
	return images, nil
}

func floatField(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

func boolField(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return strings.TrimSpace(v)
}

func stringSlice(m map[string]any, key string) []string {
	raw, _ := m[key].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
