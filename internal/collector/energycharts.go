package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SpotSentinel/internal/model"
)

const maxErrorBody = 512

// EnergyChartsFetcher implements Fetcher using the Energy-Charts public API.
type EnergyChartsFetcher struct {
	BaseURL     string
	RegionParam string // "country" or "bzn"
	Client      *http.Client
}

// NewEnergyChartsFetcher creates a new fetcher with optional proxy support.
func NewEnergyChartsFetcher(baseURL, regionParam, proxyURL string, timeout time.Duration) *EnergyChartsFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if regionParam == "" {
		regionParam = "country"
	}
	return &EnergyChartsFetcher{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		RegionParam: regionParam,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *EnergyChartsFetcher) Name() string { return "energy-charts" }

// PriceURL builds the request URL for region and window.
func (f *EnergyChartsFetcher) PriceURL(region string, window model.QueryWindow) string {
	q := url.Values{}
	q.Set(f.RegionParam, region)
	q.Set("start", window.StartDate())
	q.Set("end", window.EndDate())
	return f.BaseURL + "/price?" + q.Encode()
}

func (f *EnergyChartsFetcher) FetchPrices(ctx context.Context, region string, window model.QueryWindow) (*model.RawPriceResponse, error) {
	endpoint := f.PriceURL(region, window)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &model.TransportError{URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &model.TransportError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransportError{URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &model.TransportError{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status, body: %s", strings.TrimSpace(string(body))),
		}
	}
	return DecodePriceResponse(body)
}

// wireResponse mirrors model.RawPriceResponse with pointers so missing fields
// can be told apart from zero values.
type wireResponse struct {
	LicenseInfo *string    `json:"license_info"`
	UnixSeconds *[]int64   `json:"unix_seconds"`
	Price       *[]float64 `json:"price"`
	Unit        *string    `json:"unit"`
	Deprecated  *bool      `json:"deprecated"`
}

// DecodePriceResponse parses a price response body. Every field of the
// response is required; anything else is a *model.DecodeError.
func DecodePriceResponse(body []byte) (*model.RawPriceResponse, error) {
	var w wireResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&w); err != nil {
		return nil, &model.DecodeError{Err: err}
	}

	var missing []string
	if w.LicenseInfo == nil {
		missing = append(missing, "license_info")
	}
	if w.UnixSeconds == nil {
		missing = append(missing, "unix_seconds")
	}
	if w.Price == nil {
		missing = append(missing, "price")
	}
	if w.Unit == nil {
		missing = append(missing, "unit")
	}
	if w.Deprecated == nil {
		missing = append(missing, "deprecated")
	}
	if len(missing) > 0 {
		return nil, &model.DecodeError{Err: errors.New("missing field(s): " + strings.Join(missing, ", "))}
	}

	return &model.RawPriceResponse{
		LicenseInfo: *w.LicenseInfo,
		UnixSeconds: *w.UnixSeconds,
		Price:       *w.Price,
		Unit:        *w.Unit,
		Deprecated:  *w.Deprecated,
	}, nil
}
