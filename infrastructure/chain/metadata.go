package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dashboard/domain/core/entities"
	pkgerrors "dashboard/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// maxMetadataBytes caps a metadata document
const maxMetadataBytes = 1 << 20

// MetadataResolver fetches token metadata from ipfs, http(s) and data URIs
type MetadataResolver struct {
	gateway string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewMetadataResolver creates a resolver that maps ipfs:// URIs onto gateway
func NewMetadataResolver(gateway string, timeout time.Duration, logger *zap.Logger) *MetadataResolver {
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &MetadataResolver{
		gateway: gateway,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "token-metadata",
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < 10 {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		logger: logger,
	}
}

// Resolve loads the metadata document behind uri. An "{id}" placeholder is
// replaced with the zero-padded hex token id.
func (m *MetadataResolver) Resolve(ctx context.Context, uri string, tokenID *big.Int) (entities.TokenMetadata, error) {
	if tokenID != nil && strings.Contains(uri, "{id}") {
		uri = strings.ReplaceAll(uri, "{id}", fmt.Sprintf("%064x", tokenID))
	}

	var (
		body []byte
		err  error
	)
	if strings.HasPrefix(uri, "data:") {
		body, err = decodeDataURI(uri)
	} else {
		body, err = m.fetch(ctx, m.GatewayURL(uri))
	}
	if err != nil {
		return entities.TokenMetadata{}, err
	}

	var md entities.TokenMetadata
	if err := json.Unmarshal(body, &md); err != nil {
		return entities.TokenMetadata{}, fmt.Errorf("invalid metadata document: %w", err)
	}
	md.Image = m.GatewayURL(md.Image)
	md.AnimationURL = m.GatewayURL(md.AnimationURL)
	return md, nil
}

// GatewayURL rewrites ipfs:// URIs onto the configured gateway
func (m *MetadataResolver) GatewayURL(uri string) string {
	if !strings.HasPrefix(uri, "ipfs://") {
		return uri
	}
	path := strings.TrimPrefix(uri, "ipfs://")
	path = strings.TrimPrefix(path, "ipfs/")
	return m.gateway + path
}

func (m *MetadataResolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("unsupported token uri %q", rawURL)
	}

	out, err := m.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := m.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("metadata host returned %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, pkgerrors.NewUnavailableError("token metadata")
		}
		return nil, pkgerrors.NewExternalError("token metadata", err)
	}
	return out.([]byte), nil
}

// decodeDataURI handles data:application/json with base64 or percent-encoded payloads
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data uri")
	}
	if strings.HasSuffix(header, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return []byte(payload), nil
	}
	return []byte(decoded), nil
}
