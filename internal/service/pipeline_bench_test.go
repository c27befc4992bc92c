package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	mockprovider "github.com/saturnino-fabrica-de-software/idverify/internal/provider/mock"
)

// BenchmarkVerificationService_Verify runs the full card pipeline on the
// deterministic mock backend: regions, four OCR crops, two face locations
// and one verification. Image download is stubbed.
func BenchmarkVerificationService_Verify(b *testing.B) {
	card := patterned(480, 300, 3)

	fetcher := &MockImageFetcher{}
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(card, nil)

	svc := NewVerificationService(fetcher, mockprovider.New().Set(), discardLogger())
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Verify(ctx, cardURL, userURL); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkComparisonService_Compare measures the four concurrent paths,
// including two Grad-CAM heatmaps at the default input size
func BenchmarkComparisonService_Compare(b *testing.B) {
	img1 := patterned(320, 320, 5)
	img2 := patterned(320, 320, 6)

	fetcher := &MockImageFetcher{}
	fetcher.On("Fetch", mock.Anything, "a").Return(img1, nil)
	fetcher.On("Fetch", mock.Anything, "b").Return(img2, nil)

	svc := NewComparisonService(fetcher, mockprovider.New().Set(), discardLogger())
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Compare(ctx, "a", "b"); err != nil {
			b.Fatal(err)
		}
	}
}
