package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"clipguard/internal/services"
)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 400
	defaultTimeout     = 120 * time.Second
)

// Config captures the endpoint and sampling settings for captioning.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	// Temperature nil selects the default; zero is sent as greedy sampling.
	Temperature    *float64
	MaxTokens      int
	TimeoutSeconds int
}

// Service captions images through the configured vision model.
type Service struct {
	cfg         Config
	temperature float32
	client      *openai.Client
	prompt      string
	timeout     time.Duration
}

// Option customizes the service.
type Option func(*openai.ClientConfig, *Service)

// WithHTTPClient overrides the HTTP client used by the OpenAI SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(cc *openai.ClientConfig, _ *Service) {
		if client != nil {
			cc.HTTPClient = client
		}
	}
}

// WithPrompt replaces the caption instruction.
func WithPrompt(prompt string) Option {
	return func(_ *openai.ClientConfig, s *Service) {
		if strings.TrimSpace(prompt) != "" {
			s.prompt = prompt
		}
	}
}

// NewService constructs a captioning service.
func NewService(cfg Config, opts ...Option) *Service {
	temperature := defaultTemperature
	if cfg.Temperature != nil && *cfg.Temperature >= 0 {
		temperature = *cfg.Temperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	clientCfg := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	svc := &Service{cfg: cfg, temperature: requestTemperature(temperature), prompt: CaptionPrompt, timeout: timeout}
	for _, opt := range opts {
		opt(&clientCfg, svc)
	}
	svc.client = openai.NewClientWithConfig(clientCfg)
	return svc
}

// requestTemperature maps zero to the smallest positive float32, since the
// SDK drops a zero temperature from the request body.
func requestTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// Model reports the configured model name.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Caption sends one image to the model and returns the trimmed reply.
func (s *Service) Caption(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", services.Wrap(services.ErrValidation, "vision", "caption", "empty image", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.temperature,
		MaxTokens:   s.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: s.prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL(image),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", services.Wrap(classify(ctx, err), "vision", "caption", fmt.Sprintf("model %s", s.cfg.Model), err)
	}
	for _, choice := range resp.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", services.Wrap(services.ErrExternalTool, "vision", "caption", "empty response", nil)
}

// HealthCheck verifies the endpoint answers and, when it lists models, that
// the configured model is among them.
func (s *Service) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	list, err := s.client.ListModels(ctx)
	if err != nil {
		return services.Wrap(classify(ctx, err), "vision", "health", "list models", err)
	}
	if len(list.Models) == 0 {
		return nil
	}
	for _, model := range list.Models {
		if modelMatches(model.ID, s.cfg.Model) {
			return nil
		}
	}
	return services.Wrap(services.ErrConfiguration, "vision", "health", fmt.Sprintf("model %q not served by endpoint", s.cfg.Model), nil)
}

// modelMatches treats Ollama's implicit ":latest" tag as equivalent to the
// bare model name.
func modelMatches(id, want string) bool {
	if id == want {
		return true
	}
	return strings.TrimSuffix(id, ":latest") == strings.TrimSuffix(want, ":latest")
}

func dataURL(image []byte) string {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= http.StatusInternalServerError {
		return services.ErrTransient
	}
	return services.ErrExternalTool
}
