// Package publisher reads published contract metadata from the contract registry API.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dashboard/application/ports"
	pkgerrors "dashboard/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Client implements ports.ContractRegistry over HTTP
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a registry client rooted at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "contract-registry",
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < 5 {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
			},
			// 404s are answers, not registry failures
			IsSuccessful: func(err error) bool {
				return err == nil || pkgerrors.IsNotFound(err)
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

var _ ports.ContractRegistry = (*Client)(nil)

// GetPublishedContract returns the latest published version of a contract or module
func (c *Client) GetPublishedContract(ctx context.Context, publisher, contractID string) (*ports.PublishedContract, error) {
	path := fmt.Sprintf("/v1/publishers/%s/contracts/%s/latest", url.PathEscape(publisher), url.PathEscape(contractID))

	var out ports.PublishedContract
	if err := c.get(ctx, path, fmt.Sprintf("published contract %s/%s", publisher, contractID), &out); err != nil {
		return nil, err
	}
	if out.Publisher == "" {
		out.Publisher = publisher
	}
	if out.ContractID == "" {
		out.ContractID = contractID
	}
	return &out, nil
}

// GetPublisherProfile returns the publisher's public profile
func (c *Client) GetPublisherProfile(ctx context.Context, publisher string) (*ports.PublisherProfile, error) {
	path := fmt.Sprintf("/v1/publishers/%s", url.PathEscape(publisher))

	var out ports.PublisherProfile
	if err := c.get(ctx, path, "publisher "+publisher, &out); err != nil {
		return nil, err
	}
	if out.Name == "" {
		out.Name = publisher
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path, resource string, into interface{}) error {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, pkgerrors.NewNotFoundError(resource)
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("registry returned %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		switch {
		case pkgerrors.IsNotFound(err):
			return err
		case err == gobreaker.ErrOpenState, err == gobreaker.ErrTooManyRequests:
			return pkgerrors.NewUnavailableError("contract registry")
		default:
			c.logger.Debug("Registry request failed", zap.String("path", path), zap.Error(err))
			return pkgerrors.NewExternalError("contract registry", err)
		}
	}

	if err := json.Unmarshal(body.([]byte), into); err != nil {
		return pkgerrors.NewExternalError("contract registry", fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
