package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/veriforge/veriforge/internal/bytecode"
)

// bytecodeAbsentPattern is the fragment the service puts in its failure
// message when the deployed code is not yet visible to its indexer. This
// is the sole failure class the retry policy absorbs.
const bytecodeAbsentPattern = "bytecode not found"

// Request is the wire-level verification payload.
type Request struct {
	ContractAddress string       `json:"contract_address"`
	SourceCode      []SourceFile `json:"source_code"`
	ContractName    string       `json:"contract_name"`
	Version         string       `json:"version"`
	Args            string       `json:"args"`
	Optimization    bool         `json:"optimization"`
	Runs            int          `json:"runs"`
	CompilerType    string       `json:"compiler_type"`
}

// SourceFile is one (file name, content) pair in submission order.
type SourceFile struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

// serviceResponse is the service's structured success/failure indicator.
type serviceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// Client submits verification requests to the explorer service. Explorer
// APIs are rate limited, so outgoing calls pass through a client-side
// limiter.
type Client struct {
	apiURL      string
	explorerURL string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a verification service client. requestsPerMinute
// bounds the outgoing request rate; zero disables limiting.
func NewClient(apiURL, explorerURL, apiKey string, requestsPerMinute int, logger *slog.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return &Client{
		apiURL:      strings.TrimSuffix(apiURL, "/"),
		explorerURL: strings.TrimSuffix(explorerURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		limiter:     limiter,
		logger:      logger,
	}
}

// BuildRequest assembles the wire payload from a matched contract. The
// file list follows the trimmed record's source order; the compiler can
// be order-sensitive and the service recompiles what it receives.
func BuildRequest(address string, info *bytecode.ContractInformation, encodedArgs string) *Request {
	req := &Request{
		ContractAddress: address,
		ContractName:    info.ContractName,
		Version:         info.CompilerVersion,
		Args:            encodedArgs,
		Optimization:    info.Record.Settings.Optimizer.Enabled,
		Runs:            info.Record.Settings.Optimizer.Runs,
		CompilerType:    "solidity",
	}
	for _, entry := range info.Record.Sources {
		req.SourceCode = append(req.SourceCode, SourceFile{
			FileName: entry.Path,
			Content:  entry.Content,
		})
	}
	return req
}

// Submit posts a single verification request and classifies the response.
// It never retries; the retry policy lives in Retrier.Run.
func (c *Client) Submit(ctx context.Context, req *Request) (*Outcome, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling verification request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/contracts/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating verification request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading verification response: %w", err)
	}

	var parsed serviceResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Failed(fmt.Sprintf("unexpected response (status %d): %s", resp.StatusCode, respBody)), nil
	}

	return c.classify(resp.StatusCode, &parsed, req.ContractAddress), nil
}

// classify maps a service response onto an Outcome. Only the
// bytecode-not-found message is retryable; any other rejection is
// terminal so configuration errors are not masked as flakiness.
func (c *Client) classify(status int, resp *serviceResponse, address string) *Outcome {
	if status >= 200 && status < 300 && resp.Success {
		url := resp.URL
		if url == "" {
			url = fmt.Sprintf("%s/contract/%s", c.explorerURL, address)
		}
		return Succeeded(url)
	}

	if strings.Contains(strings.ToLower(resp.Message), bytecodeAbsentPattern) {
		c.logger.Info("verification service cannot see bytecode yet",
			"address", address, "message", resp.Message)
		return Retryable(resp.Message)
	}

	reason := resp.Message
	if reason == "" {
		reason = fmt.Sprintf("verification rejected with status %d", status)
	}
	return Failed(reason)
}
