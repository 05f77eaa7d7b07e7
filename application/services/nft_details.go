package services

import (
	"context"
	"time"

	"dashboard/application/ports"
	"dashboard/domain/config"
	"dashboard/domain/core/valueobjects"
	domainservices "dashboard/domain/services"
	pkgerrors "dashboard/pkg/errors"
)

// NFTDetailsRequest identifies a panel: the contract, its features and the client layout
type NFTDetailsRequest struct {
	ChainID          string   `json:"chainId" validate:"required,numeric"`
	Address          string   `json:"address" validate:"required,eth_addr"`
	Features         []string `json:"features" validate:"max=64"`
	Viewport         string   `json:"viewport" validate:"omitempty,oneof=narrow wide"`
	TrackingCategory string   `json:"trackingCategory" validate:"max=64"`
}

// NFTDetailsService renders NFT details panels from tracked token reads
type NFTDetailsService struct {
	tokens *TokenQueries
	panel  *domainservices.NFTDetailsPanel
	cfg    *config.DomainConfig
}

// NewNFTDetailsService creates a new NFT details service
func NewNFTDetailsService(tokens *TokenQueries, panel *domainservices.NFTDetailsPanel, cfg *config.DomainConfig) *NFTDetailsService {
	return &NFTDetailsService{tokens: tokens, panel: panel, cfg: cfg}
}

type resolvedPanel struct {
	key   TokenQueryKey
	input domainservices.NFTDetailsInput
}

func (s *NFTDetailsService) resolve(req NFTDetailsRequest) (resolvedPanel, error) {
	handle, err := valueobjects.ParseContractHandle(req.ChainID, req.Address)
	if err != nil {
		return resolvedPanel{}, pkgerrors.NewValidationError(err.Error())
	}
	viewport, err := valueobjects.ParseViewport(req.Viewport)
	if err != nil {
		return resolvedPanel{}, pkgerrors.NewValidationError(err.Error())
	}

	return resolvedPanel{
		key: TokenQueryKey{
			Handle: handle,
			Query: ports.TokenQuery{
				Count:         s.cfg.NFTPreviewCount,
				IncludeOwners: s.cfg.IncludeOwners,
			},
			WithSupply: domainservices.ShowsSupply(req.Features, s.cfg.SupplyFeatures),
		},
		input: domainservices.NFTDetailsInput{
			Handle:           handle,
			Features:         req.Features,
			Viewport:         viewport,
			TrackingCategory: req.TrackingCategory,
		},
	}, nil
}

func (s *NFTDetailsService) render(p resolvedPanel, state TokenQueryState) domainservices.NFTDetailsView {
	in := p.input
	in.Tokens = state.Tokens
	in.Supply = state.Supply
	in.Status = state.Status
	return s.panel.Build(in)
}

// Render starts the token read if needed and waits up to wait for it to
// settle. A read that is still in flight renders the loading view.
func (s *NFTDetailsService) Render(ctx context.Context, req NFTDetailsRequest, wait time.Duration) (domainservices.NFTDetailsView, error) {
	p, err := s.resolve(req)
	if err != nil {
		return domainservices.NFTDetailsView{}, err
	}

	var state TokenQueryState
	if wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		state = s.tokens.Wait(waitCtx, p.key)
		cancel()
	} else {
		state = s.tokens.Ensure(ctx, p.key)
	}
	return s.render(p, state), nil
}

// Watch streams a panel view for every state transition of its token read
// until ctx is done. The channel is closed when the stream ends.
func (s *NFTDetailsService) Watch(ctx context.Context, req NFTDetailsRequest) (<-chan domainservices.NFTDetailsView, error) {
	p, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	// Starting the read first means the first state streamed is never Idle.
	s.tokens.Ensure(ctx, p.key)
	states, cancel := s.tokens.Subscribe(p.key)

	views := make(chan domainservices.NFTDetailsView, 1)
	go func() {
		defer close(views)
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case state, ok := <-states:
				if !ok {
					return
				}
				select {
				case views <- s.render(p, state):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return views, nil
}
