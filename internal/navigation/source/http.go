package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
	"github.com/GriffinCanCode/framenav/internal/navigation/address"
	"github.com/GriffinCanCode/framenav/internal/navigation/content"
	"github.com/GriffinCanCode/framenav/internal/navigation/loader"
)

// HTTP loads http and https addresses
type HTTP struct {
	client *httpclient.Client
	logger *zap.Logger
}

// NewHTTP creates a loader backed by client
func NewHTTP(client *httpclient.Client, logger *zap.Logger) *HTTP {
	return &HTTP{
		client: client,
		logger: logging.OrNop(logger),
	}
}

// Load fetches addr and decodes the body. Status codes of 400 and above
// are errors; 404 and 410 also match loader.ErrNotFound.
func (h *HTTP) Load(ctx context.Context, addr *url.URL) (any, error) {
	if addr == nil || (addr.Scheme != "http" && addr.Scheme != "https") {
		return nil, fmt.Errorf("%w: %s", loader.ErrUnsupportedScheme, address.Key(addr))
	}

	key := address.Key(addr)
	resp, err := h.client.Get(ctx, key)
	if errors.Is(err, httpclient.ErrServer) {
		return nil, fmt.Errorf("%w: %w", loader.ErrStatus, err)
	}
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %w: %d %s", loader.ErrNotFound, loader.ErrStatus, resp.StatusCode, key)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %d %s", loader.ErrStatus, resp.StatusCode, key)
	}

	final := address.RemoveFragment(addr)
	if resp.URL != nil {
		final = resp.URL
	}

	c, err := content.Decode(final, resp.Body, resp.ContentType())
	if err != nil {
		return nil, err
	}

	if page, ok := c.(*content.Page); ok && noStore(resp.Header) {
		page.SetKeepAlive(false)
	}

	h.logger.Debug("Remote content decoded",
		zap.String("url", key),
		zap.String("type", fmt.Sprintf("%T", c)))
	return c, nil
}

func noStore(h http.Header) bool {
	for _, directive := range strings.Split(h.Get("Cache-Control"), ",") {
		if strings.EqualFold(strings.TrimSpace(directive), "no-store") {
			return true
		}
	}
	return false
}
