package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

func narrativeServer(t *testing.T, failModels map[string]bool, served *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding completion request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		*served = append(*served, req.Model)

		if failModels[req.Model] {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": {"message": "model overloaded"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "momentum looks constructive"}, "finish_reason": "stop"}]
		}`))
	}))
}

func testPayload() *models.NarrativePayload {
	return &models.NarrativePayload{
		Stock:      "台積電 (2330)",
		Timeframe:  "5min",
		Indicators: map[string]string{"RSI": "RSI(6)"},
		Data:       map[string]map[string]any{"09:00": {"Close": 100.5}},
	}
}

func TestCommentaryFirstModelWins(t *testing.T) {
	var served []string
	srv := narrativeServer(t, nil, &served)
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL+"/v1", []string{"model-a", "model-b"})

	text, err := client.Commentary(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Commentary returned error: %v", err)
	}
	if text != "momentum looks constructive" {
		t.Errorf("commentary = %q", text)
	}
	if len(served) != 1 || served[0] != "model-a" {
		t.Errorf("served models = %v, want just model-a", served)
	}
}

func TestCommentaryFallsBackInOrder(t *testing.T) {
	var served []string
	srv := narrativeServer(t, map[string]bool{"model-a": true}, &served)
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL+"/v1", []string{"model-a", "model-b"})

	text, err := client.Commentary(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Commentary returned error: %v", err)
	}
	if text != "momentum looks constructive" {
		t.Errorf("commentary = %q", text)
	}
	want := []string{"model-a", "model-b"}
	if len(served) != len(want) {
		t.Fatalf("served models = %v, want %v", served, want)
	}
	for i := range want {
		if served[i] != want[i] {
			t.Errorf("served models = %v, want %v", served, want)
			break
		}
	}
}

func TestCommentaryAllModelsFail(t *testing.T) {
	var served []string
	srv := narrativeServer(t, map[string]bool{"model-a": true, "model-b": true}, &served)
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL+"/v1", []string{"model-a", "model-b"})

	_, err := client.Commentary(context.Background(), testPayload())
	if !errors.Is(err, ErrNarrativeUnavailable) {
		t.Errorf("expected ErrNarrativeUnavailable, got %v", err)
	}
	if len(served) != 2 {
		t.Errorf("expected both models to be tried, served %v", served)
	}
}

func TestCommentaryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClientWithBaseURL("test-key", "http://127.0.0.1:0/v1", []string{"model-a"})
	if _, err := client.Commentary(ctx, testPayload()); err == nil {
		t.Error("expected an error on canceled context")
	}
}
