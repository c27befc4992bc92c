package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/idverify/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
)

type MockAadhaarVerifier struct {
	mock.Mock
}

func (m *MockAadhaarVerifier) Verify(ctx context.Context, aadhaarURL, faceURL string) (*domain.VerificationResult, error) {
	args := m.Called(ctx, aadhaarURL, faceURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationResult), args.Error(1)
}

type MockFaceComparer struct {
	mock.Mock
}

func (m *MockFaceComparer) Compare(ctx context.Context, url1, url2 string) (*domain.ComparisonReport, error) {
	args := m.Called(ctx, url1, url2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ComparisonReport), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(discardLogger()),
	})
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}
