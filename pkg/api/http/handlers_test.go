package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/porflow/porflow/internal/application/pipeline"
	"github.com/porflow/porflow/internal/config"
	"github.com/porflow/porflow/pkg/adapters/chain"
	eventsmem "github.com/porflow/porflow/pkg/adapters/events/memory"
	"github.com/porflow/porflow/pkg/adapters/reserve"
	storagemem "github.com/porflow/porflow/pkg/adapters/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "test-key"

type noopMetrics struct{}

func (noopMetrics) RecordInstructionSubmitted(status string)                       {}
func (noopMetrics) RecordWorkflowCompleted(outcome string, duration time.Duration) {}
func (noopMetrics) RecordStageExecuted(stage, status string, d time.Duration)      {}
func (noopMetrics) RecordReserveCheck(decision string)                             {}
func (noopMetrics) RecordWorkerPoolStatus(idle, busy, stopped int)                 {}

// newTestServer wires the full synchronous path with in-memory adapters and
// the local auto-confirming submitter.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := zap.NewNop()
	metrics := noopMetrics{}

	source, err := reserve.NewStaticSource("500000")
	require.NoError(t, err)

	validator, err := pipeline.NewReserveValidator(pipeline.ReservePolicySimple, nil, 18)
	require.NoError(t, err)

	submitter := chain.NewLocalSubmitter()
	mint := pipeline.NewMintStage(submitter, "policy", time.Second, metrics, logger)
	transfer := pipeline.NewTransferStage(submitter, "policy", time.Second, metrics, logger)

	bus := eventsmem.NewInMemoryEventBus()
	runner := pipeline.NewRunner(source, validator, mint, transfer, bus, metrics,
		logger, "custody-pool", 18)
	manager := pipeline.NewManager(storagemem.NewOutcomeStore(), bus, metrics,
		runner, logger, time.Minute)

	registry := &config.Registry{
		Tokens: map[string]string{"USD": "0x5f2a3a0b4e8f0c1d2e3f4a5b6c7d8e9f0a1b2c3d"},
		Chains: map[string]uint64{"sepolia": 16015286601757825753},
	}

	return NewServer(&Config{
		Port:     0,
		APIKey:   testAPIKey,
		Manager:  manager,
		Registry: registry,
		Logger:   logger,
	})
}

func doRequest(s *Server, method, path string, body interface{}, withKey bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if withKey {
		req.Header.Set("X-API-Key", testAPIKey)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func instructionBody(transactionID string) map[string]interface{} {
	return map[string]interface{}{
		"transactionId":      transactionID,
		"beneficiaryAccount": "acct-alice",
		"amount":             "100000",
		"currencyCode":       "USD",
		"bankReference":      "REF-2024-001",
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/instructions", instructionBody("txn-1"), false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestSubmitInstruction(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/instructions", instructionBody("txn-1"), true)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.WorkflowID)
	assert.Equal(t, "submitted", resp.Status)

	// Without a worker pool the workflow stays non-terminal, so the
	// outcome endpoint reports a conflict.
	w = doRequest(s, http.MethodGet, "/api/v1/instructions/"+resp.WorkflowID, nil, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/api/v1/instructions/"+resp.WorkflowID+"/outcome", nil, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOT_COMPLETED", errorCode(t, w))
}

func TestSubmitMalformedBody(t *testing.T) {
	s := newTestServer(t)

	body := map[string]interface{}{"transactionId": "txn-1"}
	w := doRequest(s, http.MethodPost, "/api/v1/instructions", body, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestSubmitInvalidAmount(t *testing.T) {
	s := newTestServer(t)

	body := instructionBody("txn-1")
	body["amount"] = "-5"
	w := doRequest(s, http.MethodPost, "/api/v1/instructions", body, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INSTRUCTION", errorCode(t, w))
}

func TestSubmitUnknownToken(t *testing.T) {
	s := newTestServer(t)

	body := instructionBody("txn-1")
	body["currencyCode"] = "XYZ"
	w := doRequest(s, http.MethodPost, "/api/v1/instructions", body, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_TOKEN", errorCode(t, w))
}

func TestSubmitTokenCheckSkippedWithoutRegistry(t *testing.T) {
	s := newTestServer(t)
	s.registry.Tokens = map[string]string{}

	// An empty token registry means no allowlist is configured.
	body := instructionBody("txn-1")
	body["currencyCode"] = "XYZ"
	w := doRequest(s, http.MethodPost, "/api/v1/instructions", body, true)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestSubmitDuplicateTransaction(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/instructions", instructionBody("txn-1"), true)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = doRequest(s, http.MethodPost, "/api/v1/instructions", instructionBody("txn-1"), true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_TRANSACTION", errorCode(t, w))
}

func TestRunInstructionCompleted(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/instructions/run", instructionBody("txn-1"), true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		WorkflowID string `json:"workflow_id"`
		Outcome    struct {
			Status        string `json:"status"`
			MintReference string `json:"mint_reference"`
		} `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Outcome.Status)
	assert.NotEmpty(t, resp.Outcome.MintReference)

	// The terminal outcome is now retrievable.
	w = doRequest(s, http.MethodGet, "/api/v1/instructions/"+resp.WorkflowID+"/outcome", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunInstructionReserveRejected(t *testing.T) {
	s := newTestServer(t)

	body := instructionBody("txn-1")
	body["amount"] = "600000"
	w := doRequest(s, http.MethodPost, "/api/v1/instructions/run", body, true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Outcome struct {
			Status string `json:"status"`
		} `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "reserve_rejected", resp.Outcome.Status)
}

func TestRunInstructionCrossChainWithAlias(t *testing.T) {
	s := newTestServer(t)

	body := instructionBody("txn-1")
	body["crossChain"] = map[string]interface{}{
		"enabled":                true,
		"destinationChainId":     "sepolia",
		"destinationBeneficiary": "acct-bob",
	}
	w := doRequest(s, http.MethodPost, "/api/v1/instructions/run", body, true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Outcome struct {
			Status            string `json:"status"`
			TransferReference string `json:"transfer_reference"`
		} `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Outcome.Status)
	assert.NotEmpty(t, resp.Outcome.TransferReference)
}

func TestRunInstructionUnknownChain(t *testing.T) {
	s := newTestServer(t)

	body := instructionBody("txn-1")
	body["crossChain"] = map[string]interface{}{
		"enabled":                true,
		"destinationChainId":     "hyperspace",
		"destinationBeneficiary": "acct-bob",
	}
	w := doRequest(s, http.MethodPost, "/api/v1/instructions/run", body, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_CHAIN", errorCode(t, w))
}

func TestGetWorkflowNotFound(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/instructions/missing", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestListWorkflows(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 2; i++ {
		w := doRequest(s, http.MethodPost, "/api/v1/instructions", instructionBody(fmt.Sprintf("txn-%d", i)), true)
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	w := doRequest(s, http.MethodGet, "/api/v1/instructions", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
}
