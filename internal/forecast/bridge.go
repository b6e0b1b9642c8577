package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ModelBridge calls an external model service over HTTP. The artifact
// behind it is treated as opaque: it receives the recent feature history
// and a lead time and answers with a raw volume in vehicles/hour.
type ModelBridge struct {
	serviceURL string
	httpClient *http.Client
}

// NewModelBridge creates a bridge to the model service at serviceURL.
// The client timeout is a hard bound so a slow model can never stall a tick.
func NewModelBridge(serviceURL string, timeout time.Duration) *ModelBridge {
	return &ModelBridge{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (b *ModelBridge) Name() string { return "Remote Model" }

type bridgeRequest struct {
	History     []Features `json:"history"`
	LeadMinutes float64    `json:"leadMinutes"`
}

type bridgeResponse struct {
	PredictedVPH      float64 `json:"predictedVph"`
	ConfidencePercent float64 `json:"confidencePercent"`
	ModelName         string  `json:"modelName"`
}

// Predict sends the feature history to the model service. All failures are
// reported to the caller, which degrades to the local trend model.
func (b *ModelBridge) Predict(ctx context.Context, history []Features, lead time.Duration) (float64, float64, error) {
	body, err := json.Marshal(bridgeRequest{History: history, LeadMinutes: lead.Minutes()})
	if err != nil {
		return 0, 0, fmt.Errorf("model_bridge: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/predict", b.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("model_bridge: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("model_bridge: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("model_bridge: service returned status %d", resp.StatusCode)
	}

	var out bridgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, fmt.Errorf("model_bridge: failed to decode response: %w", err)
	}
	if out.PredictedVPH < 0 {
		out.PredictedVPH = 0
	}
	return out.PredictedVPH, out.ConfidencePercent, nil
}
