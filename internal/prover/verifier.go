// Package prover provides the proof-verification boundary: given a circuit
// identifier, a proof blob and public-input bytes, the service returns a
// validity verdict. The core only consumes the verdict.
package prover

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Verifier reports whether a proof is valid for the given circuit and
// public inputs.
type Verifier interface {
	Verify(ctx context.Context, circuitID common.Hash, proof, publicInputs []byte) (bool, error)
}

// Client is an HTTP client for the prover sidecar's verify endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a prover client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// verifyRequest is the wire shape of a verification request.
type verifyRequest struct {
	CircuitID    string `json:"circuit_id"`
	Proof        []byte `json:"proof"`
	PublicInputs []byte `json:"public_inputs"`
}

// verifyResponse is the wire shape of the verdict.
type verifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Verify calls the prover service and returns its verdict. A transport or
// service error is distinct from an invalid-proof verdict.
func (c *Client) Verify(ctx context.Context, circuitID common.Hash, proof, publicInputs []byte) (bool, error) {
	start := time.Now()
	defer func() {
		VerifyDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(verifyRequest{
		CircuitID:    circuitID.Hex(),
		Proof:        proof,
		PublicInputs: publicInputs,
	})
	if err != nil {
		return false, fmt.Errorf("marshal verify request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/verify", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		VerifyErrorsTotal.Inc()
		return false, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		VerifyErrorsTotal.Inc()
		return false, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		VerifyErrorsTotal.Inc()
		return false, fmt.Errorf("prover returned status %d: %s", resp.StatusCode, data)
	}

	var verdict verifyResponse
	if err := json.Unmarshal(data, &verdict); err != nil {
		VerifyErrorsTotal.Inc()
		return false, fmt.Errorf("unmarshal response: %w", err)
	}

	if verdict.Error != "" {
		VerifyErrorsTotal.Inc()
		return false, fmt.Errorf("prover error: %s", verdict.Error)
	}

	if verdict.Valid {
		VerdictsTotal.WithLabelValues("valid").Inc()
	} else {
		VerdictsTotal.WithLabelValues("invalid").Inc()
	}

	c.logger.Debug("proof-verified",
		zap.String("circuit-id", circuitID.Hex()),
		zap.Bool("valid", verdict.Valid))

	return verdict.Valid, nil
}
