package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"radiosim/internal/codec"
	"radiosim/internal/model"
)

// HTTPSolver calls an external ray-tracing service for each step. The service
// owns the scene and device resources; one request is one step.
type HTTPSolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSolver creates a solver client for the service at baseURL. No client
// timeout is set; a step runs as long as the caller's context allows.
func NewHTTPSolver(baseURL string) *HTTPSolver {
	return &HTTPSolver{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type solveRequestBody struct {
	SceneName string              `json:"scene_name"`
	Radio     model.RadioConfig   `json:"radio_configs"`
	Antenna   model.AntennaConfig `json:"antenna_configs"`
	Positions []model.Vec3        `json:"positions"`
}

type solveResponseBody struct {
	CIRMag   string      `json:"cir_mag"`
	CIRPhase string      `json:"cir_phase"`
	DType    codec.DType `json:"dtype"`
	Shape    []int       `json:"shape"`
}

// Solve runs one step remotely and decodes the returned channel response.
func (s *HTTPSolver) Solve(ctx context.Context, req SolveRequest) (*ChannelResponse, error) {
	body, err := json.Marshal(solveRequestBody{
		SceneName: req.SceneName,
		Radio:     req.Radio,
		Antenna:   req.Antenna,
		Positions: req.Positions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal solve request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/solve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build solve request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("solver returned %s", resp.Status)
	}

	var out solveResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode solve response: %w", err)
	}

	mag, err := codec.Decode(codec.Encoded{Token: out.CIRMag, DType: out.DType, Shape: out.Shape})
	if err != nil {
		return nil, fmt.Errorf("decode magnitude: %w", err)
	}
	phase, err := codec.Decode(codec.Encoded{Token: out.CIRPhase, DType: out.DType, Shape: out.Shape})
	if err != nil {
		return nil, fmt.Errorf("decode phase: %w", err)
	}

	return &ChannelResponse{Mag: mag, Phase: phase}, nil
}
