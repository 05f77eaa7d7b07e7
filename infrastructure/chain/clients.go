// Package chain reads NFT contracts over JSON-RPC.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	pkgerrors "dashboard/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Caller is the read side of an RPC client
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Dialer opens a client for one RPC endpoint
type Dialer func(ctx context.Context, rawURL string) (Caller, func(), error)

// DialEthclient dials url with go-ethereum's ethclient
func DialEthclient(ctx context.Context, rawURL string) (Caller, func(), error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// ClientPool lazily dials one client per configured chain
type ClientPool struct {
	mu      sync.Mutex
	urls    map[uint64]string
	dial    Dialer
	clients map[uint64]Caller
	closers []func()
	logger  *zap.Logger
}

// NewClientPool creates a pool for the chain id to RPC URL mapping
func NewClientPool(urls map[uint64]string, dial Dialer, logger *zap.Logger) *ClientPool {
	if dial == nil {
		dial = DialEthclient
	}
	return &ClientPool{
		urls:    urls,
		dial:    dial,
		clients: make(map[uint64]Caller),
		logger:  logger,
	}
}

// Client returns the client for chainID, dialing on first use
func (p *ClientPool) Client(ctx context.Context, chainID uint64) (Caller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[chainID]; ok {
		return c, nil
	}
	url, ok := p.urls[chainID]
	if !ok {
		return nil, pkgerrors.NewUnavailableError(fmt.Sprintf("rpc for chain %d", chainID))
	}

	c, closeFn, err := p.dial(ctx, url)
	if err != nil {
		return nil, pkgerrors.NewChainError(chainID, err)
	}
	p.clients[chainID] = c
	if closeFn != nil {
		p.closers = append(p.closers, closeFn)
	}
	p.logger.Info("Dialed chain RPC", zap.Uint64("chainID", chainID))
	return c, nil
}

// Close closes every dialed client
func (p *ClientPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, closeFn := range p.closers {
		closeFn()
	}
	p.closers = nil
	p.clients = make(map[uint64]Caller)
}
