package pipeline

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
	"go.uber.org/zap"
)

// MintExecutor runs the mint stage. checkedBeneficiary is the identity the
// downstream policy evaluates; mintRecipient is the account that actually
// receives the minted value. They differ when a cross-chain leg follows.
type MintExecutor interface {
	Run(ctx context.Context, checkedBeneficiary, mintRecipient string, amount *big.Int, bankReference string) (*domain.StageResult, error)
}

// TransferExecutor runs the cross-chain transfer stage. sender is always the
// custody account that received funds in the mint stage.
type TransferExecutor interface {
	Run(ctx context.Context, sender, destinationBeneficiary string, destinationChainID uint64, amount *big.Int, bankReference string) (*domain.StageResult, error)
}

// MintStage submits a signed mint report to the report submission capability.
type MintStage struct {
	submitter       ports.ReportSubmitter
	rejectionSignal string
	timeout         time.Duration
	metrics         ports.MetricsCollector
	logger          *zap.Logger
}

// NewMintStage creates a mint stage.
func NewMintStage(submitter ports.ReportSubmitter, rejectionSignal string, timeout time.Duration, metrics ports.MetricsCollector, logger *zap.Logger) *MintStage {
	return &MintStage{
		submitter:       submitter,
		rejectionSignal: rejectionSignal,
		timeout:         timeout,
		metrics:         metrics,
		logger:          logger,
	}
}

// Run encodes and submits the mint report. The policy identity passed to
// classification is the checked beneficiary, never the recipient.
func (s *MintStage) Run(ctx context.Context, checkedBeneficiary, mintRecipient string, amount *big.Int, bankReference string) (*domain.StageResult, error) {
	report := &domain.MintReport{
		Recipient:     mintRecipient,
		Amount:        amount,
		BankReference: bankReference,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	receipt, err := s.submitter.SubmitReport(ctx, report.Encode())
	result, stageErr := classifyReceipt(receipt, err, checkedBeneficiary, s.rejectionSignal)

	s.metrics.RecordStageExecuted("mint", stageStatus(stageErr), time.Since(start))

	if stageErr != nil {
		s.logger.Warn("mint stage failed",
			zap.String("checked_beneficiary", checkedBeneficiary),
			zap.String("mint_recipient", mintRecipient),
			zap.Error(stageErr))
		return nil, stageErr
	}

	s.logger.Info("mint stage completed",
		zap.String("mint_recipient", mintRecipient),
		zap.String("reference", result.Reference))

	return result, nil
}

// TransferStage submits a signed cross-chain transfer report. Structurally
// identical to the mint stage with its own payload encoding; the downstream
// policy for this stage is presumed to run its own value-range checks.
type TransferStage struct {
	submitter       ports.ReportSubmitter
	rejectionSignal string
	timeout         time.Duration
	metrics         ports.MetricsCollector
	logger          *zap.Logger
}

// NewTransferStage creates a transfer stage.
func NewTransferStage(submitter ports.ReportSubmitter, rejectionSignal string, timeout time.Duration, metrics ports.MetricsCollector, logger *zap.Logger) *TransferStage {
	return &TransferStage{
		submitter:       submitter,
		rejectionSignal: rejectionSignal,
		timeout:         timeout,
		metrics:         metrics,
		logger:          logger,
	}
}

// Run encodes and submits the transfer report. The policy identity is the
// destination beneficiary.
func (s *TransferStage) Run(ctx context.Context, sender, destinationBeneficiary string, destinationChainID uint64, amount *big.Int, bankReference string) (*domain.StageResult, error) {
	report := &domain.TransferReport{
		DestinationChainID:     destinationChainID,
		Sender:                 sender,
		DestinationBeneficiary: destinationBeneficiary,
		Amount:                 amount,
		BankReference:          bankReference,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	receipt, err := s.submitter.SubmitReport(ctx, report.Encode())
	result, stageErr := classifyReceipt(receipt, err, destinationBeneficiary, s.rejectionSignal)

	s.metrics.RecordStageExecuted("transfer", stageStatus(stageErr), time.Since(start))

	if stageErr != nil {
		s.logger.Warn("transfer stage failed",
			zap.String("sender", sender),
			zap.String("destination_beneficiary", destinationBeneficiary),
			zap.Uint64("destination_chain_id", destinationChainID),
			zap.Error(stageErr))
		return nil, stageErr
	}

	s.logger.Info("transfer stage completed",
		zap.Uint64("destination_chain_id", destinationChainID),
		zap.String("reference", result.Reference))

	return result, nil
}

// classifyReceipt performs the three-way classification of a submission:
// success, policy rejection, or transport failure. Structured reject codes
// win; the substring signal is a best-effort fallback for capabilities that
// only return human-readable messages.
func classifyReceipt(receipt *ports.SubmitReceipt, submitErr error, identity, rejectionSignal string) (*domain.StageResult, error) {
	if submitErr != nil {
		if errors.Is(submitErr, context.DeadlineExceeded) {
			return nil, &domain.TransportError{Message: "submission timed out"}
		}
		return nil, &domain.TransportError{Message: submitErr.Error()}
	}
	if receipt == nil {
		return nil, &domain.TransportError{Message: "no receipt returned"}
	}

	if receipt.Status == ports.SubmitStatusSuccess {
		return &domain.StageResult{Reference: receipt.Reference}, nil
	}

	if receipt.Code == ports.RejectCodePolicyRejected {
		return nil, &domain.PolicyRejectedError{Identity: identity, Message: receipt.Message}
	}
	if receipt.Code == ports.RejectCodeNone && rejectionSignal != "" &&
		strings.Contains(strings.ToLower(receipt.Message), strings.ToLower(rejectionSignal)) {
		return nil, &domain.PolicyRejectedError{Identity: identity, Message: receipt.Message}
	}

	return nil, &domain.TransportError{Message: receipt.Message}
}

// stageStatus renders a stage error as a metrics label.
func stageStatus(err error) string {
	var policyErr *domain.PolicyRejectedError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &policyErr):
		return "policy_rejected"
	default:
		return "transport_failed"
	}
}
