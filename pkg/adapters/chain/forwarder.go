package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/porflow/porflow/internal/ports"
	"go.uber.org/zap"
)

// ForwarderClient submits encoded reports to the signed-report submission
// endpoint. A non-2xx response with a parseable body is a delivered-but-
// rejected submission and comes back as a receipt; anything else is a
// transport error.
type ForwarderClient struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// submitRequest is the forwarder's wire format; payloads travel hex-encoded.
type submitRequest struct {
	Payload string `json:"payload"`
}

type submitResponse struct {
	Status               string `json:"status"`
	TransactionReference string `json:"transactionReference"`
	ErrorCode            string `json:"errorCode,omitempty"`
	ErrorMessage         string `json:"errorMessage,omitempty"`
}

// NewForwarderClient creates a forwarder client.
func NewForwarderClient(endpoint string, timeout time.Duration, logger *zap.Logger) *ForwarderClient {
	return &ForwarderClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// SubmitReport delivers one encoded payload and returns the tagged receipt.
func (c *ForwarderClient) SubmitReport(ctx context.Context, payload []byte) (*ports.SubmitReceipt, error) {
	body, err := json.Marshal(submitRequest{Payload: hex.EncodeToString(payload)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit report: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode submission response (status %d): %w", resp.StatusCode, err)
	}

	receipt := &ports.SubmitReceipt{
		Status:    ports.SubmitStatusError,
		Reference: result.TransactionReference,
		Code:      mapErrorCode(result.ErrorCode),
		Message:   result.ErrorMessage,
	}
	if result.Status == string(ports.SubmitStatusSuccess) {
		receipt.Status = ports.SubmitStatusSuccess
	}

	c.logger.Debug("report submitted",
		zap.String("status", string(receipt.Status)),
		zap.String("reference", receipt.Reference),
		zap.String("error_code", string(receipt.Code)))

	return receipt, nil
}

// mapErrorCode maps the forwarder's error codes to receipt reject codes.
// Unknown codes are left untagged so that classification falls back to the
// message signal.
func mapErrorCode(code string) ports.RejectCode {
	switch code {
	case "POLICY_REJECTED", "COMPLIANCE_BLOCKED":
		return ports.RejectCodePolicyRejected
	case "TRANSPORT_FAILED", "SUBMISSION_FAILED":
		return ports.RejectCodeTransport
	default:
		return ports.RejectCodeNone
	}
}
