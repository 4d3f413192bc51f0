package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/porflow/porflow/internal/application/pipeline"
	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
	"go.uber.org/zap"
)

// InstructionRequest is the wire form of an inbound instruction. The
// destination chain may be a registered alias or a numeric chain selector.
type InstructionRequest struct {
	TransactionID      string                  `json:"transactionId" binding:"required"`
	BeneficiaryAccount string                  `json:"beneficiaryAccount" binding:"required"`
	Amount             string                  `json:"amount" binding:"required"`
	CurrencyCode       string                  `json:"currencyCode"`
	BankReference      string                  `json:"bankReference"`
	CrossChain         *CrossChainRequestBody  `json:"crossChain,omitempty"`
}

// CrossChainRequestBody is the wire form of the optional cross-chain leg.
type CrossChainRequestBody struct {
	Enabled                bool   `json:"enabled"`
	DestinationChainID     string `json:"destinationChainId,omitempty"`
	DestinationBeneficiary string `json:"destinationBeneficiary,omitempty"`
}

// SubmitResponse is returned for an accepted asynchronous submission.
type SubmitResponse struct {
	WorkflowID  string `json:"workflow_id"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSubmitInstruction handles asynchronous instruction submission.
func (s *Server) handleSubmitInstruction(c *gin.Context) {
	instr, ok := s.bindInstruction(c)
	if !ok {
		return
	}

	state, err := s.manager.Submit(c.Request.Context(), instr)
	if err != nil {
		s.writeSubmitError(c, state, err)
		return
	}

	c.JSON(http.StatusAccepted, SubmitResponse{
		WorkflowID:  state.WorkflowID,
		Status:      string(state.Status),
		SubmittedAt: state.SubmittedAt.UTC().Format(time.RFC3339),
	})
}

// handleRunInstruction runs an instruction synchronously and maps the
// outcome to an HTTP status.
func (s *Server) handleRunInstruction(c *gin.Context) {
	instr, ok := s.bindInstruction(c)
	if !ok {
		return
	}

	state, err := s.manager.RunSync(c.Request.Context(), instr)
	if err != nil {
		s.writeSubmitError(c, state, err)
		return
	}

	c.JSON(statusForOutcome(state.Outcome), gin.H{
		"workflow_id": state.WorkflowID,
		"outcome":     state.Outcome,
	})
}

// handleListWorkflows lists retained workflow states.
func (s *Server) handleListWorkflows(c *gin.Context) {
	states, err := s.manager.ListStates(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list workflows", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "LIST_FAILED",
				Message: "Failed to list workflows",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workflows": states,
		"total":     len(states),
	})
}

// handleGetWorkflow returns the full state of a workflow.
func (s *Server) handleGetWorkflow(c *gin.Context) {
	state, ok := s.loadWorkflow(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, state)
}

// handleGetOutcome returns the terminal outcome of a workflow.
func (s *Server) handleGetOutcome(c *gin.Context) {
	state, ok := s.loadWorkflow(c)
	if !ok {
		return
	}

	if !state.Terminal() {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_COMPLETED",
				Message: "Workflow has not yet reached a terminal outcome",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workflow_id": state.WorkflowID,
		"outcome":     state.Outcome,
	})
}

// bindInstruction parses the request body and resolves registry aliases.
func (s *Server) bindInstruction(c *gin.Context) (*domain.Instruction, bool) {
	var req InstructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return nil, false
	}

	// A populated token registry is an allowlist of mintable currencies.
	if req.CurrencyCode != "" && len(s.registry.Tokens) > 0 {
		if _, err := s.registry.ResolveToken(req.CurrencyCode); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: ErrorDetail{
					Code:    "UNKNOWN_TOKEN",
					Message: err.Error(),
				},
			})
			return nil, false
		}
	}

	instr := &domain.Instruction{
		TransactionID:      req.TransactionID,
		BeneficiaryAccount: req.BeneficiaryAccount,
		Amount:             req.Amount,
		CurrencyCode:       req.CurrencyCode,
		BankReference:      req.BankReference,
	}

	if req.CrossChain != nil {
		instr.CrossChain = &domain.CrossChainRequest{
			Enabled:                req.CrossChain.Enabled,
			DestinationBeneficiary: req.CrossChain.DestinationBeneficiary,
		}
		if req.CrossChain.DestinationChainID != "" {
			chainID, err := s.registry.ResolveChain(req.CrossChain.DestinationChainID)
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{
					Error: ErrorDetail{
						Code:    "UNKNOWN_CHAIN",
						Message: err.Error(),
					},
				})
				return nil, false
			}
			instr.CrossChain.DestinationChainID = chainID
		}
	}

	return instr, true
}

// loadWorkflow fetches the workflow state for the path ID, writing the 404
// itself when absent.
func (s *Server) loadWorkflow(c *gin.Context) (*domain.WorkflowState, bool) {
	workflowID := c.Param("id")

	state, err := s.manager.GetState(c.Request.Context(), workflowID)
	if err != nil {
		if errors.Is(err, ports.ErrStateNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: ErrorDetail{
					Code:    "NOT_FOUND",
					Message: "Workflow not found",
				},
			})
		} else {
			s.logger.Error("failed to get workflow state",
				zap.String("workflow_id", workflowID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: ErrorDetail{
					Code:    "STORE_ERROR",
					Message: "Failed to load workflow",
				},
			})
		}
		return nil, false
	}

	return state, true
}

// writeSubmitError maps submission errors to responses.
func (s *Server) writeSubmitError(c *gin.Context, state *domain.WorkflowState, err error) {
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_INSTRUCTION",
				Message: validationErr.Error(),
			},
		})
	case errors.Is(err, pipeline.ErrDuplicateTransaction):
		detail := ErrorDetail{
			Code:    "DUPLICATE_TRANSACTION",
			Message: "Transaction ID already processed",
		}
		if state != nil {
			detail.Details = gin.H{"workflow_id": state.WorkflowID, "status": state.Status}
		}
		c.JSON(http.StatusConflict, ErrorResponse{Error: detail})
	default:
		s.logger.Error("failed to submit instruction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "SUBMISSION_FAILED",
				Message: "Failed to submit instruction",
			},
		})
	}
}

// statusForOutcome maps outcome variants to HTTP statuses: completed
// succeeds, rejections are client-addressable, transport failures are
// upstream faults.
func statusForOutcome(outcome *domain.WorkflowOutcome) int {
	switch outcome.Status {
	case domain.OutcomeCompleted:
		return http.StatusOK
	case domain.OutcomeInvalidInstruction:
		return http.StatusBadRequest
	case domain.OutcomeReserveRejected,
		domain.OutcomeMintRejectedByPolicy,
		domain.OutcomeTransferRejectedByPolicy:
		return http.StatusUnprocessableEntity
	case domain.OutcomeMintFailed, domain.OutcomeTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
