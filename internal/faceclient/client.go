// Package faceclient talks to the face recognition microservice. The
// admin side only consumes verification verdicts; enrollment and gallery
// search belong to the capture pipeline.
package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FaceQuality contains face quality metrics reported by the service.
type FaceQuality struct {
	Score     float64 `json:"score"`
	Blur      float64 `json:"blur"`
	FaceSize  int     `json:"face_size"`
	IsFrontal bool    `json:"is_frontal"`
}

// VerifyResult is the outcome of matching an image against one enrolled
// user.
type VerifyResult struct {
	UserID     string       `json:"user_id"`
	Verified   bool         `json:"verified"`
	Similarity float64      `json:"similarity"`
	Threshold  float64      `json:"threshold"`
	Quality    *FaceQuality `json:"quality"`
}

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set, Verify approves everything, which
// keeps local development working without the Python service running.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // Face processing can take time
		},
	}
}

// Verify matches an image against a specific enrolled user.
func (c *Client) Verify(ctx context.Context, userID, imageURL string) (*VerifyResult, error) {
	if c.Skip {
		return &VerifyResult{
			UserID:     userID,
			Verified:   true,
			Similarity: 0.92,
			Threshold:  0.45,
			Quality:    &FaceQuality{Score: 0.85, IsFrontal: true},
		}, nil
	}
	if imageURL == "" {
		return nil, fmt.Errorf("image url required")
	}

	var result VerifyResult
	err := c.postJSON(ctx, "/verify", map[string]string{
		"user_id":   userID,
		"image_url": imageURL,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("face service error %s: %s", resp.Status, string(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
