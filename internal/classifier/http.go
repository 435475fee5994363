// Package classifier implements the model-server client. The engine talks
// to the model over HTTP with a JSON body; any in-process or remote model
// can stand in as long as it satisfies model.Classifier.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"FlowSentry/internal/model"
)

// HTTPClassifier sends feature vectors to a model server and decodes its
// (label, confidence) verdict.
type HTTPClassifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClassifier creates a client for the given prediction endpoint.
// A zero timeout falls back to 5 seconds.
func NewHTTPClassifier(endpoint string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClassifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Columns []string `json:"columns"`
	Row     []string `json:"row"`
}

type predictResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify posts the vector in column order and returns the model verdict.
func (c *HTTPClassifier) Classify(ctx context.Context, fv *model.FeatureVector) (model.Classification, error) {
	body, err := json.Marshal(predictRequest{
		Columns: model.FeatureColumns(),
		Row:     fv.Row(),
	})
	if err != nil {
		return model.Classification{}, fmt.Errorf("failed to encode prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Classification{}, fmt.Errorf("failed to build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Classification{}, fmt.Errorf("model server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Classification{}, fmt.Errorf("model server returned status %d", resp.StatusCode)
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return model.Classification{}, fmt.Errorf("failed to decode prediction response: %w", err)
	}
	if pr.Confidence < 0 || pr.Confidence > 1 {
		return model.Classification{}, fmt.Errorf("model confidence %f out of range", pr.Confidence)
	}
	return model.Classification{Label: pr.Label, Confidence: pr.Confidence}, nil
}

// Static always returns a fixed verdict. Useful for offline analysis runs
// without a model server and for tests.
type Static struct {
	Label      string
	Confidence float64
	Err        error
}

func (s *Static) Classify(ctx context.Context, fv *model.FeatureVector) (model.Classification, error) {
	if s.Err != nil {
		return model.Classification{}, s.Err
	}
	return model.Classification{Label: s.Label, Confidence: s.Confidence}, nil
}
