package collector

import (
	"context"

	"SpotSentinel/internal/model"
)

// Fetcher retrieves the raw price series for a UTC query window.
// Implementations return *model.TransportError or *model.DecodeError on failure.
type Fetcher interface {
	FetchPrices(ctx context.Context, region string, window model.QueryWindow) (*model.RawPriceResponse, error)
	Name() string
}
