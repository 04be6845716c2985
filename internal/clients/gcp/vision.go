package gcp

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

// LightingAnalyzer scores photo lighting so the quality check can flag scans
// taken in the dark or against a blown-out window. Advisory only.
type LightingAnalyzer interface {
	LightingScore(ctx context.Context, imageURI string) (float64, error)
	Close() error
}

type lightingAnalyzer struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

func NewLightingAnalyzer(log *logger.Logger) (LightingAnalyzer, error) {
	client, err := vision.NewImageAnnotatorClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &lightingAnalyzer{
		log:    log.With("service", "LightingAnalyzer"),
		client: client,
	}, nil
}

// LightingScore returns a score in [0,1] derived from dominant-color
// luminance. Mid-brightness images score near 1; very dark or very bright
// images score toward 0.
func (a *lightingAnalyzer) LightingScore(ctx context.Context, imageURI string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{
			Source: &visionpb.ImageSource{ImageUri: imageURI},
		},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_IMAGE_PROPERTIES},
		},
	}
	br := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{req}}
	resp, err := a.client.BatchAnnotateImages(ctx, br)
	if err != nil {
		return 0, fmt.Errorf("vision BatchAnnotateImages %s: %w", imageURI, err)
	}
	if resp == nil || len(resp.GetResponses()) == 0 || resp.GetResponses()[0] == nil {
		return 0, fmt.Errorf("vision annotate %s: empty response", imageURI)
	}
	r0 := resp.GetResponses()[0]
	if r0.GetError() != nil && r0.GetError().GetMessage() != "" {
		return 0, fmt.Errorf("vision annotate %s: %s", imageURI, r0.GetError().GetMessage())
	}

	score, err := scoreFromDominantColors(r0.GetImagePropertiesAnnotation().GetDominantColors().GetColors())
	if err != nil {
		return 0, fmt.Errorf("vision annotate %s: %w", imageURI, err)
	}
	return score, nil
}

func scoreFromDominantColors(colors []*visionpb.ColorInfo) (float64, error) {
	if len(colors) == 0 {
		return 0, fmt.Errorf("no dominant colors")
	}

	var lum, weight float64
	for _, c := range colors {
		col := c.GetColor()
		if col == nil {
			continue
		}
		frac := float64(c.GetPixelFraction())
		if frac <= 0 {
			frac = 1.0 / float64(len(colors))
		}
		l := 0.299*float64(col.GetRed()) + 0.587*float64(col.GetGreen()) + 0.114*float64(col.GetBlue())
		lum += l * frac
		weight += frac
	}
	if weight == 0 {
		return 0, fmt.Errorf("zero pixel weight")
	}
	lum /= weight

	// Distance from a comfortable mid-brightness target, normalized.
	norm := lum / 255.0
	score := 1 - abs(norm-0.55)/0.55
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

func (a *lightingAnalyzer) Close() error {
	return a.client.Close()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
