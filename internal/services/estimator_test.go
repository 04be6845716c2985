package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/apperr"
)

func allAngleURLs() map[string]string {
	m := map[string]string{}
	for _, a := range scan.Angles {
		m[a] = "https://cdn.example.com/scans/u/s/" + a + ".jpg"
	}
	return m
}

func TestOrderedImages(t *testing.T) {
	images, err := orderedImages(allAngleURLs())
	require.NoError(t, err)
	require.Len(t, images, 4)
	// Fixed order so the prompt can reference photos positionally.
	assert.Contains(t, images[0].ImageURL, "front")
	assert.Contains(t, images[1].ImageURL, "back")
	assert.Contains(t, images[2].ImageURL, "left")
	assert.Contains(t, images[3].ImageURL, "right")
	for _, img := range images {
		assert.Equal(t, "high", img.Detail)
	}

	missing := allAngleURLs()
	delete(missing, scan.AngleRight)
	_, err = orderedImages(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "right")

	empty := allAngleURLs()
	empty[scan.AngleBack] = ""
	_, err = orderedImages(empty)
	assert.Error(t, err)
}

func TestStaticEstimatorDeterministic(t *testing.T) {
	est := NewStaticEstimator(testLogger(t))
	ctx := context.Background()
	urls := allAngleURLs()

	a, err := est.Estimate(ctx, urls, 183.0, EstimateContext{})
	require.NoError(t, err)
	b, err := est.Estimate(ctx, urls, 183.0, EstimateContext{})
	require.NoError(t, err)
	assert.Equal(t, *a, *b)

	// 183 mod 10 = 3 -> bf 0.18.
	assert.InDelta(t, 0.18, a.BFPercent, 1e-9)
	assert.Greater(t, a.BFPercent, 0.0)
	assert.Less(t, a.BFPercent, 1.0)
	assert.InDelta(t, 0.3, a.Confidence, 1e-9)
}

func TestStaticEstimatorRequiresAllAngles(t *testing.T) {
	est := NewStaticEstimator(testLogger(t))
	urls := allAngleURLs()
	delete(urls, scan.AngleFront)

	_, err := est.Estimate(context.Background(), urls, 180, EstimateContext{})
	assert.True(t, apperr.IsEstimation(err))

	_, err = est.QualityCheck(context.Background(), urls)
	assert.True(t, apperr.IsTransient(err))
}

func TestStaticEstimatorQualityCheckPasses(t *testing.T) {
	est := NewStaticEstimator(testLogger(t))
	qc, err := est.QualityCheck(context.Background(), allAngleURLs())
	require.NoError(t, err)
	assert.True(t, qc.IsValid)
	assert.True(t, qc.PoseOK)
}

func TestFieldHelpers(t *testing.T) {
	m := map[string]any{
		"bf_percent": 0.21,
		"is_valid":   true,
		"notes":      "  dim lighting  ",
		"issues":     []any{"too dark", 42, "blurry"},
	}

	assert.Equal(t, 0.21, floatField(m, "bf_percent"))
	assert.Equal(t, 0.0, floatField(m, "absent"))
	assert.True(t, boolField(m, "is_valid"))
	assert.False(t, boolField(m, "absent"))
	assert.Equal(t, "dim lighting", stringField(m, "notes"))
	assert.Equal(t, []string{"too dark", "blurry"}, stringSlice(m, "issues"))
	assert.Empty(t, stringSlice(m, "absent"))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 0.5, clamp01(0.5))
	assert.Equal(t, 1.0, clamp01(1.5))
}
