package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FlowSentry/internal/model"
)

func TestHTTPClassifierClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Columns) != len(req.Row) {
			t.Errorf("columns/row mismatch: %d vs %d", len(req.Columns), len(req.Row))
		}
		json.NewEncoder(w).Encode(predictResponse{Label: "DDoS", Confidence: 0.92})
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, 2*time.Second)
	got, err := c.Classify(context.Background(), &model.FeatureVector{SrcIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Label != "DDoS" || got.Confidence != 0.92 {
		t.Errorf("verdict = %+v", got)
	}
}

func TestHTTPClassifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, 2*time.Second)
	if _, err := c.Classify(context.Background(), &model.FeatureVector{}); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestHTTPClassifierBadConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(predictResponse{Label: "DDoS", Confidence: 1.7})
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, 2*time.Second)
	if _, err := c.Classify(context.Background(), &model.FeatureVector{}); err == nil {
		t.Fatal("expected error on out-of-range confidence")
	}
}
