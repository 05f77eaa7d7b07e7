package handlers

import (
	"context"
	"fmt"
	"time"

	"dashboard/application/queries"
	"dashboard/application/queries/bus"
	"dashboard/application/services"
)

// PanelObserver records rendered panel outcomes
type PanelObserver interface {
	ObservePanel(state string, visible bool)
}

// GetNFTDetailsHandler renders NFT details panels
type GetNFTDetailsHandler struct {
	service  *services.NFTDetailsService
	wait     time.Duration
	observer PanelObserver
}

// NewGetNFTDetailsHandler creates a new NFT details handler. wait bounds how
// long a request waits for the token read before rendering the loading view.
func NewGetNFTDetailsHandler(service *services.NFTDetailsService, wait time.Duration, observer PanelObserver) *GetNFTDetailsHandler {
	return &GetNFTDetailsHandler{service: service, wait: wait, observer: observer}
}

// Handle executes the NFT details query
func (h *GetNFTDetailsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetNFTDetailsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query %T", query)
	}

	view, err := h.service.Render(ctx, q.NFTDetailsRequest, h.wait)
	if err != nil {
		return nil, err
	}
	h.observer.ObservePanel(view.FetchStatus.String(), view.Visible)
	return &view, nil
}
