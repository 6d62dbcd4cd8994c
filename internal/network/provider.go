// Package network provides access to deployed contract code on a chain.
package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrBytecodeAbsent means the address holds no code yet. Shortly after
// contract creation this is expected: the creating transaction may not
// have been indexed by the queried node. It is the only transient failure
// in the pipeline; everything else is permanent.
var ErrBytecodeAbsent = errors.New("no bytecode at address")

// Provider fetches the code currently deployed at an address. It does not
// retry; absorbing the eventual-consistency window is the caller's job.
type Provider interface {
	GetCode(ctx context.Context, address string) ([]byte, error)
}

// EthProvider implements Provider over a JSON-RPC endpoint using
// go-ethereum's client.
type EthProvider struct {
	client *ethclient.Client
}

// Dial connects to a JSON-RPC endpoint.
func Dial(rawURL string) (*EthProvider, error) {
	client, err := ethclient.Dial(rawURL)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", rawURL, err)
	}
	return &EthProvider{client: client}, nil
}

// GetCode returns the code at address on the latest block, or
// ErrBytecodeAbsent if the account holds none.
func (p *EthProvider) GetCode(ctx context.Context, address string) ([]byte, error) {
	code, err := p.client.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getCode %s: %w", address, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBytecodeAbsent, address)
	}
	return code, nil
}

// Close releases the underlying RPC connection.
func (p *EthProvider) Close() {
	p.client.Close()
}
