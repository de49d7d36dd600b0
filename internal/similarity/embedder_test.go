package similarity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/themecheck/internal/model"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var gotInput []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotInput = req.Input
		assert.Equal(t, "nomic-embed-text", req.Model)

		// Out of order on purpose
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"nomic-embed-text","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		]}`))
	}))
	defer srv.Close()

	cfg := model.DefaultConfig().Similarity
	cfg.Provider = "ollama"
	cfg.Model = "nomic-embed-text"
	cfg.BaseURL = srv.URL + "/v1"

	e, err := NewEmbedder(cfg, nil)
	require.NoError(t, err)

	vectors, err := e.Embed(context.Background(), []string{"beaches", "museums"})
	require.NoError(t, err)

	assert.Equal(t, []string{"beaches", "museums"}, gotInput)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
}

func TestOpenAIEmbedder_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	cfg := model.DefaultConfig().Similarity
	cfg.Provider = "ollama"
	cfg.BaseURL = srv.URL + "/v1"

	e, err := NewEmbedder(cfg, nil)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"beaches"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestOpenAIEmbedder_EmptyInput(t *testing.T) {
	cfg := model.DefaultConfig().Similarity
	cfg.Provider = "ollama"

	e, err := NewEmbedder(cfg, nil)
	require.NoError(t, err)

	vectors, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}
