// Package verifier wires the verification pipeline: artifact index ->
// import graph resolver -> bytecode matcher -> verification submitter.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veriforge/veriforge/internal/artifact"
	"github.com/veriforge/veriforge/internal/bytecode"
	"github.com/veriforge/veriforge/internal/network"
	"github.com/veriforge/veriforge/internal/resolver"
	"github.com/veriforge/veriforge/internal/submit"
	"github.com/veriforge/veriforge/internal/validation"
)

// Submitter posts a single verification request.
type Submitter interface {
	Submit(ctx context.Context, req *submit.Request) (*submit.Outcome, error)
}

// Service runs verification flows against a loaded set of build records.
// The records are read-only after construction, so one Service may serve
// concurrent verification requests without synchronization.
type Service struct {
	records   []*artifact.BuildRecord
	provider  network.Provider
	submitter Submitter
	retrier   *submit.Retrier
	logger    *slog.Logger
}

// Params identifies one verification request.
type Params struct {
	ContractName    string
	Address         string
	ConstructorArgs string
}

// NewService creates a verification service.
func NewService(records []*artifact.BuildRecord, provider network.Provider, submitter Submitter, retrier *submit.Retrier, logger *slog.Logger) *Service {
	return &Service{
		records:   records,
		provider:  provider,
		submitter: submitter,
		retrier:   retrier,
		logger:    logger,
	}
}

// Verify locates the build record for the contract, trims it to the
// import closure of the contract's source, then drives match-and-submit
// attempts under the retry policy. The deployed code is fetched fresh on
// every attempt; the reason for retrying is precisely that it may not
// exist yet.
func (s *Service) Verify(ctx context.Context, p Params) (*submit.Outcome, error) {
	if err := validation.ValidateAddress(p.Address); err != nil {
		return nil, fmt.Errorf("invalid contract address: %w", err)
	}

	record, err := artifact.FindContaining(s.records, p.ContractName)
	if err != nil {
		return nil, err
	}

	// The verification service rejects versions it cannot parse; catch a
	// corrupt build record here instead of burning retry attempts on it.
	if err := validation.ValidateCompilerVersion(record.Compiler.Version); err != nil {
		return nil, fmt.Errorf("build record %s: %w", record.Path, err)
	}

	sourcePath, err := resolver.ResolveSourcePath(p.ContractName, record)
	if err != nil {
		return nil, err
	}

	closure, err := resolver.Closure(sourcePath, record)
	if err != nil {
		return nil, err
	}
	trimmed := resolver.Trim(record, closure)

	s.logger.Info("resolved contract sources",
		"contract", p.ContractName,
		"root", sourcePath,
		"sources", len(trimmed.Sources),
		"trimmed_from", len(record.Sources),
		"compiler", trimmed.Compiler.Version)

	return s.retrier.Run(ctx, func(ctx context.Context, attempt int) (*submit.Outcome, error) {
		return s.attempt(ctx, p, trimmed, attempt)
	})
}

// attempt performs one fetch-match-submit cycle.
func (s *Service) attempt(ctx context.Context, p Params, trimmed *artifact.BuildRecord, attempt int) (*submit.Outcome, error) {
	deployed, err := s.provider.GetCode(ctx, p.Address)
	if err != nil {
		if errors.Is(err, network.ErrBytecodeAbsent) {
			return submit.Retryable(err.Error()), nil
		}
		return nil, err
	}

	info, err := bytecode.Match(deployed, trimmed)
	if err != nil {
		return nil, fmt.Errorf("matching deployed code at %s: %w", p.Address, err)
	}

	encodedArgs, err := submit.EncodeConstructorArgs(info.ABI, p.ConstructorArgs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("submitting verification request",
		"attempt", attempt,
		"contract", info.ContractName,
		"source", info.SourcePath,
		"libraries", len(info.Libraries))

	return s.submitter.Submit(ctx, submit.BuildRequest(p.Address, info, encodedArgs))
}
