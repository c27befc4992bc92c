package mock

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/idverify/internal/idcard"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

func patterned(w, h int, seed uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x*3) + seed, G: uint8(y*5) ^ seed, B: uint8(x*y) + seed, A: 255})
		}
	}
	return img
}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	return img
}

func TestProvider_DetectFaces(t *testing.T) {
	p := New()
	ctx := context.Background()

	tests := []struct {
		name      string
		image     image.Image
		wantFaces int
		wantErr   bool
	}{
		{"patterned image", patterned(100, 80, 1), 1, false},
		{"blank image", blank(100, 80), 0, false},
		{"image too small", patterned(10, 10, 1), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, err := p.DetectFaces(ctx, tt.image)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrImageTooSmall)
				return
			}
			require.NoError(t, err)
			assert.Len(t, faces, tt.wantFaces)
		})
	}
}

func TestProvider_DetectFaces_Box(t *testing.T) {
	faces, err := New().DetectFaces(context.Background(), patterned(100, 50, 1))
	require.NoError(t, err)
	require.Len(t, faces, 1)

	assert.Equal(t, image.Rect(10, 5, 90, 45), faces[0].Box)
}

func TestProvider_VerifyFaces(t *testing.T) {
	p := New()
	ctx := context.Background()
	img := patterned(64, 64, 3)

	same, err := p.VerifyFaces(ctx, img, patterned(64, 64, 3))
	require.NoError(t, err)
	assert.True(t, same.Verified)
	assert.InDelta(t, 0, same.Distance, 1e-9)
	assert.Equal(t, "mock", same.Model)

	_, err = p.VerifyFaces(ctx, img, patterned(4, 4, 3))
	assert.ErrorIs(t, err, ErrImageTooSmall)
}

func TestProvider_VerifyFaces_Deterministic(t *testing.T) {
	p := New()
	ctx := context.Background()

	first, err := p.VerifyFaces(ctx, patterned(64, 64, 3), patterned(64, 64, 90))
	require.NoError(t, err)
	second, err := p.VerifyFaces(ctx, patterned(64, 64, 3), patterned(64, 64, 90))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first.Distance, 0.0)
}

func TestProvider_CardRoundTrip(t *testing.T) {
	p := New()
	ctx := context.Background()
	card := patterned(480, 300, 7)

	regions, err := p.DetectRegions(ctx, card)
	require.NoError(t, err)
	require.Len(t, regions, 4)

	byLabel := map[provider.FieldLabel][]string{}
	for _, r := range regions {
		crop := card.SubImage(r.Box)
		tokens, err := p.ExtractText(ctx, crop)
		require.NoError(t, err)
		byLabel[r.Label] = tokens
	}

	id := strings.Join(byLabel[provider.LabelIdentifier], "")
	assert.Len(t, id, 12)
	assert.True(t, idcard.ValidateAadhaar(id), id)

	assert.Len(t, byLabel[provider.LabelName], 2)
	assert.Contains(t, []string{"MALE", "FEMALE"}, strings.Join(byLabel[provider.LabelGender], ""))
	assert.Len(t, strings.Join(byLabel[provider.LabelDateOfBirth], ""), 10)
}

func TestProvider_DetectRegions_Blank(t *testing.T) {
	regions, err := New().DetectRegions(context.Background(), blank(300, 200))
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestProvider_PredictLandmarks(t *testing.T) {
	p := New()
	ctx := context.Background()
	img := patterned(200, 200, 5)

	sets, err := p.PredictLandmarks(ctx, img)
	require.NoError(t, err)
	require.Len(t, sets, 1)

	again, err := p.PredictLandmarks(ctx, patterned(200, 200, 5))
	require.NoError(t, err)
	assert.Equal(t, sets, again)

	face := image.Rect(20, 20, 180, 180).Inset(-3)
	for i, pt := range sets[0] {
		assert.True(t, pt.In(face), "landmark %d at %v outside face box", i, pt)
	}

	none, err := p.PredictLandmarks(ctx, blank(200, 200))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProvider_Classifier(t *testing.T) {
	p := New()
	ctx := context.Background()
	img := patterned(224, 224, 9)

	assert.Equal(t, 224, p.InputSize())

	pass, err := p.Forward(ctx, img, "block5_conv3")
	require.NoError(t, err)

	h, w, c := pass.Activations.Shape()
	assert.Equal(t, [3]int{14, 14, 8}, [3]int{h, w, c})
	require.Len(t, pass.Probabilities, 10)

	var sum float64
	for _, v := range pass.Probabilities {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	grads, err := p.Gradients(ctx, img, "block5_conv3", 3)
	require.NoError(t, err)
	gh, gw, gc := grads.Shape()
	assert.Equal(t, [3]int{14, 14, 8}, [3]int{gh, gw, gc})

	_, err = p.Gradients(ctx, img, "block5_conv3", 10)
	assert.Error(t, err)
}

func TestProvider_Set(t *testing.T) {
	p := New()
	set := p.Set()

	assert.Same(t, p, set.Regions)
	assert.Same(t, p, set.Classifier)
}
