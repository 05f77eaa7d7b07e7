package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dashboard/application/queries"
	querybus "dashboard/application/queries/bus"
	"dashboard/application/services"
	"dashboard/domain/core/valueobjects"
	domainservices "dashboard/domain/services"
	"dashboard/pkg/common"
	pkgerrors "dashboard/pkg/errors"
	"dashboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// heartbeatInterval keeps idle event streams open through proxies
const heartbeatInterval = 15 * time.Second

// PanelWatcher streams panel views as their token reads change state
type PanelWatcher interface {
	Watch(ctx context.Context, req services.NFTDetailsRequest) (<-chan domainservices.NFTDetailsView, error)
}

// ContractHandler serves the contract overview panels
type ContractHandler struct {
	queryBus *querybus.QueryBus
	watcher  PanelWatcher
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewContractHandler creates a new contract handler
func NewContractHandler(
	queryBus *querybus.QueryBus,
	watcher PanelWatcher,
	errors *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ContractHandler {
	return &ContractHandler{
		queryBus: queryBus,
		watcher:  watcher,
		errors:   errors,
		logger:   logger,
	}
}

// GetNFTDetails handles GET /contracts/{chainID}/{address}/nft-details.
// A hidden panel is 204 No Content.
func (h *ContractHandler) GetNFTDetails(w http.ResponseWriter, r *http.Request) {
	query := queries.GetNFTDetailsQuery{NFTDetailsRequest: panelRequest(r)}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	view, ok := result.(*domainservices.NFTDetailsView)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError(fmt.Sprintf("unexpected panel result %T", result)))
		return
	}

	w.Header().Set("Vary", "Sec-CH-UA-Mobile")
	if !view.Visible {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// StreamNFTDetails handles GET /contracts/{chainID}/{address}/nft-details/events.
// Every fetch-state transition is sent as a "panel" server-sent event.
func (h *ContractHandler) StreamNFTDetails(w http.ResponseWriter, r *http.Request) {
	req := panelRequest(r)
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.errors.HandleStatus(w, r, http.StatusNotImplemented, "Streaming is not supported")
		return
	}

	ctx := r.Context()
	views, err := h.watcher.Watch(ctx, req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for seq := 1; ; {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case view, ok := <-views:
			if !ok {
				return
			}
			data, err := json.Marshal(view)
			if err != nil {
				h.logger.Error("Failed to encode panel event", zap.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: panel\ndata: %s\n\n", seq, data); err != nil {
				return
			}
			flusher.Flush()
			seq++
		}
	}
}

// panelRequest reads the panel request from the route and query string.
// features may repeat and may hold comma lists. Without an explicit viewport
// the Sec-CH-UA-Mobile client hint decides.
func panelRequest(r *http.Request) services.NFTDetailsRequest {
	q := r.URL.Query()

	var features []string
	for _, raw := range q["features"] {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				features = append(features, f)
			}
		}
	}

	viewport := q.Get("viewport")
	if viewport == "" {
		if hint := r.Header.Get("Sec-CH-UA-Mobile"); hint != "" {
			viewport = valueobjects.ViewportFromMobileHint(hint).String()
		}
	}

	return services.NFTDetailsRequest{
		ChainID:          chi.URLParam(r, "chainID"),
		Address:          chi.URLParam(r, "address"),
		Features:         features,
		Viewport:         viewport,
		TrackingCategory: q.Get("tracking_category"),
	}
}
