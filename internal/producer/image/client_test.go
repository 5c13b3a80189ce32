package image

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"assetgen/internal/producer"
)

func TestProduceDecodesImage(t *testing.T) {
	pngBytes := []byte("\x89PNG\r\n\x1a\nfake")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != "dall-e-3" || req["prompt"] != "a pixel-art CD" || req["size"] != "1024x1792" ||
			req["quality"] != "hd" || req["response_format"] != "b64_json" || req["n"] != float64(1) {
			t.Errorf("unexpected request %v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []any{map[string]any{"b64_json": base64.StdEncoding.EncodeToString(pngBytes), "revised_prompt": "x"}},
		})
	}))
	defer server.Close()

	p := New(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1/"})
	out, err := p.Produce(context.Background(), producer.Parameters{"prompt": "a pixel-art CD", "size": "1024x1792", "quality": "hd"})
	if err != nil {
		t.Fatalf("Produce returned error: %v", err)
	}
	if string(out) != string(pngBytes) {
		t.Fatalf("unexpected bytes %q", out)
	}
}

func TestProduceStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Your request was rejected by the safety system.","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	p := New(Config{APIKey: "sk-test", BaseURL: server.URL})
	_, err := p.Produce(context.Background(), producer.Parameters{"prompt": "x"})
	if !errors.Is(err, producer.ErrResponse) {
		t.Fatalf("expected ErrResponse, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest || !strings.Contains(statusErr.Message, "safety system") {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}

func TestProduceMalformedResponses(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		marker error
	}{
		{"not json", "<html>", producer.ErrResponse},
		{"no data", `{"data":[]}`, producer.ErrResponse},
		{"url only", `{"data":[{"url":"https://example.com/x.png"}]}`, producer.ErrResponse},
		{"bad base64", `{"data":[{"b64_json":"***"}]}`, producer.ErrResponse},
		{"error envelope", `{"error":{"message":"quota"}}`, producer.ErrResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()
			_, err := New(Config{APIKey: "k", BaseURL: server.URL}).Produce(context.Background(), producer.Parameters{"prompt": "x"})
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestProduceTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(Config{APIKey: "k", BaseURL: server.URL}).Produce(ctx, producer.Parameters{"prompt": "x"})
	if !errors.Is(err, producer.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestProduceValidation(t *testing.T) {
	if err := New(Config{}).Validate(); !errors.Is(err, producer.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	_, err := New(Config{APIKey: "k"}).Produce(context.Background(), producer.Parameters{})
	if !errors.Is(err, producer.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}
