package similarity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/themecheck/internal/model"
	"github.com/ppiankov/themecheck/internal/resilience"
	"github.com/ppiankov/themecheck/internal/util"
	"github.com/ppiankov/themecheck/internal/worker"
)

const defaultOllamaBaseURL = "http://localhost:11434/v1"

// Embedder produces one embedding vector per input text
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint
type OpenAIEmbedder struct {
	client   *openai.Client
	model    string
	endpoint string
	breaker  string
	limiter  *worker.Limiter
	executor *resilience.Executor
}

// NewEmbedder creates an embedder for the configured provider
func NewEmbedder(cfg model.SimilarityConfig, logger *slog.Logger) (*OpenAIEmbedder, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	apiKey := cfg.APIKey
	baseURL := cfg.BaseURL
	switch provider {
	case "openai", "":
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required (set THEMECHECK_SIMILARITY_API_KEY)")
		}
	case "ollama":
		// Ollama ignores the key but the client requires one
		if apiKey == "" {
			apiKey = "ollama"
		}
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", cfg.Provider)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = util.NewHTTPClient(cfg.Timeout, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)

	resCfg := resilience.DefaultConfig()
	resCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	resCfg.BreakerEnabled = cfg.BreakerEnabled

	return &OpenAIEmbedder{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		endpoint: clientConfig.BaseURL,
		breaker:  resilience.BreakerName(cfg.Model, clientConfig.BaseURL),
		limiter:  worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		executor: resilience.NewExecutor(resCfg, logger),
	}, nil
}

// Model returns the embedding model name
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Embed embeds texts in one request. The result is ordered like texts.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := resilience.Call(ctx, e.executor, e.breaker, func(ctx context.Context) ([][]float32, error) {
		if err := e.limiter.Wait(ctx, e.endpoint); err != nil {
			return nil, err
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
		}

		data := resp.Data
		sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

		out := make([][]float32, len(data))
		for i, d := range data {
			out[i] = d.Embedding
		}
		return out, nil
	}, classifyError)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	return vectors, nil
}

// classifyError decides which embedding failures are worth retrying
func classifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status != 0 {
		retryable := isRetryableHTTPStatus(status)
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
