package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Value string `json:"value"`
}

func TestDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var in echo
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			_ = json.NewEncoder(w).Encode(echo{Value: strings.ToUpper(in.Value)})
		case "/broken":
			_, _ = w.Write([]byte("{not json"))
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"no face"}`))
		case "/huge-error":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
		}
	}))
	defer server.Close()

	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		var out echo
		err := Do(ctx, server.Client(), http.MethodPost, server.URL+"/echo", echo{Value: "abc"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "ABC", out.Value)
	})

	t.Run("invalid json", func(t *testing.T) {
		var out echo
		err := Do(ctx, server.Client(), http.MethodGet, server.URL+"/broken", nil, &out)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("client error", func(t *testing.T) {
		err := Do(ctx, server.Client(), http.MethodGet, server.URL+"/bad", nil, nil)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusBadRequest, se.StatusCode)
		assert.False(t, se.Temporary())
		assert.Contains(t, err.Error(), "no face")
		assert.True(t, IsStatus(err, http.StatusBadRequest))
	})

	t.Run("server error body truncated", func(t *testing.T) {
		err := Do(ctx, server.Client(), http.MethodGet, server.URL+"/huge-error", nil, nil)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.True(t, se.Temporary())
		assert.Len(t, se.Body, maxErrorBody)
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		err := Do(canceled, server.Client(), http.MethodGet, server.URL+"/echo", nil, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsStatus(t *testing.T) {
	assert.False(t, IsStatus(nil, http.StatusBadRequest))
	assert.False(t, IsStatus(errors.New("plain"), http.StatusBadRequest))
	assert.True(t, IsStatus(&StatusError{StatusCode: 404}, http.StatusNotFound))
}
