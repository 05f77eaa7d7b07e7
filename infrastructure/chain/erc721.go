package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"dashboard/application/ports"
	"dashboard/domain/core/entities"
	"dashboard/domain/core/valueobjects"
	pkgerrors "dashboard/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const erc721ABI = `[
	{"name":"ownerOf","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"tokenURI","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"nextTokenIdToMint","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

var parsedERC721 = mustParseABI(erc721ABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid ERC721 ABI: %v", err))
	}
	return parsed
}

// ClientSource hands out RPC clients by chain id
type ClientSource interface {
	Client(ctx context.Context, chainID uint64) (Caller, error)
}

// MetadataSource resolves a token URI to its metadata document
type MetadataSource interface {
	Resolve(ctx context.Context, uri string, tokenID *big.Int) (entities.TokenMetadata, error)
}

// ERC721Reader implements ports.TokenReader for ERC721 drops and collections
type ERC721Reader struct {
	clients     ClientSource
	metadata    MetadataSource
	concurrency int
	logger      *zap.Logger
}

// NewERC721Reader creates a reader that fans out up to concurrency token reads
func NewERC721Reader(clients ClientSource, metadata MetadataSource, concurrency int, logger *zap.Logger) *ERC721Reader {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ERC721Reader{
		clients:     clients,
		metadata:    metadata,
		concurrency: concurrency,
		logger:      logger,
	}
}

var _ ports.TokenReader = (*ERC721Reader)(nil)

// GetNFTs reads tokens [query.Start, query.Start+query.Count) clipped to the
// number of tokens the contract has.
func (r *ERC721Reader) GetNFTs(ctx context.Context, handle valueobjects.ContractHandle, query ports.TokenQuery) ([]entities.Token, error) {
	client, err := r.clients.Client(ctx, handle.ChainID())
	if err != nil {
		return nil, err
	}

	total, err := r.tokenCount(ctx, client, handle)
	if err != nil {
		return nil, err
	}

	start := int64(query.Start)
	end := start + int64(query.Count)
	if total.IsInt64() && total.Int64() < end {
		end = total.Int64()
	}
	if end <= start {
		return []entities.Token{}, nil
	}

	tokens := make([]entities.Token, end-start)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range tokens {
		id := big.NewInt(start + int64(i))
		slot := &tokens[i]
		g.Go(func() error {
			token, err := r.readToken(gctx, client, handle, id, query.IncludeOwners)
			if err != nil {
				return err
			}
			*slot = token
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// GetSupply reads lazy-minted (total) and claimed supply. Contracts without
// lazy minting report totalSupply for both.
func (r *ERC721Reader) GetSupply(ctx context.Context, handle valueobjects.ContractHandle) (*entities.SupplySummary, error) {
	client, err := r.clients.Client(ctx, handle.ChainID())
	if err != nil {
		return nil, err
	}

	claimed, err := callUint(ctx, client, handle, "totalSupply")
	if err != nil {
		return nil, pkgerrors.NewChainError(handle.ChainID(), err)
	}
	total, err := callUint(ctx, client, handle, "nextTokenIdToMint")
	if err != nil {
		total = new(big.Int).Set(claimed)
	}
	return &entities.SupplySummary{Total: total, Claimed: claimed}, nil
}

func (r *ERC721Reader) tokenCount(ctx context.Context, client Caller, handle valueobjects.ContractHandle) (*big.Int, error) {
	if n, err := callUint(ctx, client, handle, "nextTokenIdToMint"); err == nil {
		return n, nil
	}
	n, err := callUint(ctx, client, handle, "totalSupply")
	if err != nil {
		return nil, pkgerrors.NewChainError(handle.ChainID(), err)
	}
	return n, nil
}

func (r *ERC721Reader) readToken(ctx context.Context, client Caller, handle valueobjects.ContractHandle, id *big.Int, includeOwner bool) (entities.Token, error) {
	token := entities.Token{ID: id.String()}

	out, err := call(ctx, client, handle, "tokenURI", id)
	if err != nil {
		return token, pkgerrors.NewChainError(handle.ChainID(), fmt.Errorf("tokenURI(%s): %w", id, err))
	}
	token.TokenURI = *abi.ConvertType(out[0], new(string)).(*string)

	if includeOwner {
		// Unclaimed lazy-minted tokens have no owner and revert
		if out, err := call(ctx, client, handle, "ownerOf", id); err == nil {
			owner := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
			token.Owner = &owner
		}
	}

	if token.TokenURI != "" {
		md, err := r.metadata.Resolve(ctx, token.TokenURI, id)
		if err != nil {
			r.logger.Debug("Token metadata unavailable",
				zap.String("contract", handle.String()),
				zap.String("tokenID", token.ID),
				zap.Error(err),
			)
		} else {
			token.Metadata = md
		}
	}
	return token, nil
}

func call(ctx context.Context, client Caller, handle valueobjects.ContractHandle, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsedERC721.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	to := handle.Address()
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	out, err := parsedERC721.Unpack(method, raw)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return out, nil
}

func callUint(ctx context.Context, client Caller, handle valueobjects.ContractHandle, method string) (*big.Int, error) {
	out, err := call(ctx, client, handle, method)
	if err != nil {
		return nil, err
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T", method, out[0])
	}
	return n, nil
}
