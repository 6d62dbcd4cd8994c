package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/veriforge/veriforge/internal/artifact"
	"github.com/veriforge/veriforge/internal/config"
	"github.com/veriforge/veriforge/internal/network"
	"github.com/veriforge/veriforge/internal/storage"
	"github.com/veriforge/veriforge/internal/submit"
	"github.com/veriforge/veriforge/internal/verifier"
)

func createVerifyCmd() *cobra.Command {
	var address string
	var constructorArgs string
	var artifactsDir string
	var attempts int
	var delaySeconds int

	cmd := &cobra.Command{
		Use:   "verify <contract>",
		Short: "Verify a deployed contract against local build artifacts",
		Long: `Verify that the bytecode deployed at an address was produced by a local
build record, then submit the contract's minimal source set to the
explorer verification service.

The source set is trimmed to the transitive import closure of the
contract's own source file. If the explorer cannot see the deployed
bytecode yet, the submission is retried a bounded number of times.

EXAMPLES:
  # Verify a contract
  veriforge verify Token --address 0x1234...

  # Constructor arguments as raw values (ABI-encoded automatically)
  veriforge verify Token \
    --address 0x1234... \
    --ctor-args "0xAbC...,1000000"

  # Pre-encoded constructor arguments
  veriforge verify Token --address 0x1234... --ctor-args 0x0000...
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), args[0], address, constructorArgs, artifactsDir, attempts, delaySeconds)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "deployed contract address (required)")
	cmd.Flags().StringVar(&constructorArgs, "ctor-args", "", "constructor arguments: raw comma-separated values or pre-encoded hex")
	cmd.Flags().StringVar(&artifactsDir, "artifacts", "", "build artifact directory (default from config)")
	cmd.Flags().IntVar(&attempts, "attempts", 0, "max verification attempts (default 3)")
	cmd.Flags().IntVar(&delaySeconds, "retry-delay", 0, "seconds between attempts (default 5)")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func runVerify(ctx context.Context, contractName, address, constructorArgs, artifactsDir string, attempts, delaySeconds int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level)

	artifactsDir = getArtifactsDir(artifactsDir, cfg.Artifacts.Dir)
	if attempts <= 0 {
		attempts = cfg.Retry.MaxAttempts
	}
	if delaySeconds <= 0 {
		delaySeconds = cfg.Retry.DelaySeconds
	}

	explorerAPIURL := getExplorerAPI()
	if explorerAPIURL == "" {
		return fmt.Errorf("no explorer API URL configured (use --explorer-api or 'veriforge config init')")
	}

	records, err := artifact.LoadAll(artifactsDir, logger)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no build artifacts found in %s", artifactsDir)
	}

	provider, err := network.Dial(getRPC())
	if err != nil {
		return err
	}
	defer provider.Close()

	explorerBase := getExplorerBase(cfg.Explorer.BaseURL)
	if explorerBase == "" {
		explorerBase = explorerAPIURL
	}
	client := submit.NewClient(explorerAPIURL, explorerBase, getAPIKey(), cfg.Explorer.RequestsPerMin, logger)
	retrier := submit.NewRetrier(attempts, time.Duration(delaySeconds)*time.Second, logger)

	svc := verifier.NewService(records, provider, client, retrier, logger)

	compilerVersion := ""
	if rec, findErr := artifact.FindContaining(records, contractName); findErr == nil {
		compilerVersion = rec.Compiler.Version
	}

	fmt.Printf("🔍 Verifying %s at %s\n", contractName, address)

	outcome, err := svc.Verify(ctx, verifier.Params{
		ContractName:    contractName,
		Address:         address,
		ConstructorArgs: constructorArgs,
	})

	recordHistory(ctx, logger, contractName, address, compilerVersion, outcome, err)

	if err != nil {
		return err
	}

	fmt.Println()
	switch outcome.Status {
	case submit.StatusSucceeded:
		fmt.Println("✅ VERIFIED")
		fmt.Printf("   %s\n", outcome.ExplorerURL)
	default:
		fmt.Println("❌ NOT VERIFIED")
		fmt.Printf("   Reason: %s\n", outcome.Reason)
		return fmt.Errorf("verification failed: %s", outcome.Reason)
	}

	return nil
}

// recordHistory appends the terminal outcome to the local history store.
// History is best effort; a failure here never fails the verification.
func recordHistory(ctx context.Context, logger *slog.Logger, contractName, address, compilerVersion string, outcome *submit.Outcome, verifyErr error) {
	store, err := openHistoryStore(ctx)
	if err != nil {
		logger.Warn("history store unavailable", "error", err)
		return
	}
	defer store.Close()

	// Attempts performed, not the configured maximum. Errors abort
	// mid-attempt, so at least one attempt ran.
	attempts := 1
	if outcome != nil {
		attempts = outcome.Attempts
	}

	rec := &storage.Verification{
		ContractName:    contractName,
		Address:         address,
		CompilerVersion: compilerVersion,
		Attempts:        attempts,
	}
	switch {
	case verifyErr != nil:
		rec.Status = string(submit.StatusFailed)
		rec.Reason = verifyErr.Error()
	case outcome.Status == submit.StatusSucceeded:
		rec.Status = string(submit.StatusSucceeded)
		rec.ExplorerURL = outcome.ExplorerURL
	default:
		rec.Status = string(submit.StatusFailed)
		rec.Reason = outcome.Reason
	}

	if err := store.SaveVerification(ctx, rec); err != nil {
		logger.Warn("failed to record verification history", "error", err)
	}
}
