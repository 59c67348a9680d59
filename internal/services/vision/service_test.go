package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clipguard/internal/services"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func newTestServer(t *testing.T, handler func(t *testing.T, body map[string]any) (int, any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Method == http.MethodPost {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		status, payload := handler(t, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "llama3.2-vision",
		"choices": []any{
			map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	}
}

func TestCaptionSendsImageAndSamplingOptions(t *testing.T) {
	var captured map[string]any
	server := newTestServer(t, func(t *testing.T, body map[string]any) (int, any) {
		captured = body
		return http.StatusOK, completion("  CENA: pessoa\nTEXTO: Sem texto\nALERTA: nenhum  ")
	})

	svc := NewService(Config{BaseURL: server.URL + "/v1", Model: "llama3.2-vision"})
	got, err := svc.Caption(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("Caption returned error: %v", err)
	}
	if !strings.HasPrefix(got, "CENA: pessoa") || strings.HasSuffix(got, " ") {
		t.Fatalf("unexpected caption %q", got)
	}

	if captured["model"] != "llama3.2-vision" {
		t.Fatalf("model = %v", captured["model"])
	}
	if temp, _ := captured["temperature"].(float64); temp < 0.09 || temp > 0.11 {
		t.Fatalf("temperature = %v", captured["temperature"])
	}
	if captured["max_tokens"] != float64(400) {
		t.Fatalf("max_tokens = %v", captured["max_tokens"])
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %d", len(messages))
	}
	parts, _ := messages[0].(map[string]any)["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected text and image parts, got %#v", messages[0])
	}
	image, _ := parts[1].(map[string]any)["image_url"].(map[string]any)
	url, _ := image["url"].(string)
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected image url prefix %q", url)
	}
	text, _ := parts[0].(map[string]any)["text"].(string)
	if !strings.Contains(text, "ALERTA") {
		t.Fatalf("expected caption prompt, got %q", text)
	}
}

func TestCaptionKeepsZeroTemperature(t *testing.T) {
	var captured map[string]any
	server := newTestServer(t, func(t *testing.T, body map[string]any) (int, any) {
		captured = body
		return http.StatusOK, completion("CENA: rua")
	})

	zero := 0.0
	svc := NewService(Config{BaseURL: server.URL + "/v1", Model: "m", Temperature: &zero})
	if _, err := svc.Caption(context.Background(), jpegHeader); err != nil {
		t.Fatalf("Caption returned error: %v", err)
	}
	temp, ok := captured["temperature"].(float64)
	if !ok {
		t.Fatalf("temperature missing from request: %v", captured)
	}
	if temp > 1e-6 {
		t.Fatalf("configured zero temperature became %v", temp)
	}
}

func TestCaptionRejectsEmptyImage(t *testing.T) {
	svc := NewService(Config{BaseURL: "http://127.0.0.1:1/v1", Model: "m"})
	_, err := svc.Caption(context.Background(), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCaptionEmptyResponseIsError(t *testing.T) {
	server := newTestServer(t, func(*testing.T, map[string]any) (int, any) {
		return http.StatusOK, completion("   ")
	})
	svc := NewService(Config{BaseURL: server.URL, Model: "m"})
	_, err := svc.Caption(context.Background(), jpegHeader)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestCaptionServerErrorIsTransient(t *testing.T) {
	server := newTestServer(t, func(*testing.T, map[string]any) (int, any) {
		return http.StatusInternalServerError, map[string]any{"error": map[string]any{"message": "boom", "type": "server_error"}}
	})
	svc := NewService(Config{BaseURL: server.URL, Model: "m"})
	_, err := svc.Caption(context.Background(), jpegHeader)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestHealthCheckFindsModel(t *testing.T) {
	server := newTestServer(t, func(*testing.T, map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"object": "list",
			"data": []any{
				map[string]any{"id": "llama3.2-vision:latest", "object": "model"},
			},
		}
	})
	if err := NewService(Config{BaseURL: server.URL, Model: "llama3.2-vision"}).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	err := NewService(Config{BaseURL: server.URL, Model: "other"}).HealthCheck(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing model, got %v", err)
	}
}
