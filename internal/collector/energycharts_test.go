package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpotSentinel/internal/model"
)

const sampleBody = `{
  "license_info": "CC BY 4.0 (creativecommons.org/licenses/by/4.0) from Bundesnetzagentur | SMARD.de",
  "unix_seconds": [1705273200, 1705276800, 1705280400],
  "price": [80.5, -1.25, 77],
  "unit": "EUR / MWh",
  "deprecated": false
}`

var testWindow = model.QueryWindow{
	Start: time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 1, 15, 22, 59, 59, 0, time.UTC),
}

func TestEnergyChartsFetcher_FetchPrices(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price", r.URL.Path)
		gotQuery = map[string]string{
			"country": r.URL.Query().Get("country"),
			"start":   r.URL.Query().Get("start"),
			"end":     r.URL.Query().Get("end"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	f := NewEnergyChartsFetcher(srv.URL+"/", "", "", 5*time.Second)
	raw, err := f.FetchPrices(context.Background(), "de", testWindow)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"country": "de", "start": "2024-01-14", "end": "2024-01-15"}, gotQuery)
	assert.Equal(t, []int64{1705273200, 1705276800, 1705280400}, raw.UnixSeconds)
	assert.Equal(t, []float64{80.5, -1.25, 77}, raw.Price)
	assert.Equal(t, "EUR / MWh", raw.Unit)
	assert.Contains(t, raw.LicenseInfo, "CC BY 4.0")
	assert.Equal(t, "energy-charts", f.Name())
}

func TestEnergyChartsFetcher_BiddingZoneParam(t *testing.T) {
	f := NewEnergyChartsFetcher("https://api.energy-charts.info", "bzn", "", time.Second)

	u := f.PriceURL("DE-LU", testWindow)

	assert.Equal(t, "https://api.energy-charts.info/price?bzn=DE-LU&end=2024-01-15&start=2024-01-14", u)
}

func TestEnergyChartsFetcher_StatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewEnergyChartsFetcher(srv.URL, "", "", time.Second).FetchPrices(context.Background(), "de", testWindow)

	var te *model.TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.Contains(t, te.Error(), "upstream down")
}

func TestEnergyChartsFetcher_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewEnergyChartsFetcher(url, "", "", time.Second).FetchPrices(context.Background(), "de", testWindow)

	var te *model.TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Zero(t, te.StatusCode)
}

func TestEnergyChartsFetcher_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEnergyChartsFetcher(srv.URL, "", "", time.Second).FetchPrices(ctx, "de", testWindow)

	var te *model.TransportError
	require.True(t, errors.As(err, &te))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnergyChartsFetcher_BadBodyIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := NewEnergyChartsFetcher(srv.URL, "", "", time.Second).FetchPrices(context.Background(), "de", testWindow)

	var de *model.DecodeError
	assert.True(t, errors.As(err, &de), "got %v", err)
}

func TestDecodePriceResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", sampleBody, false},
		{"empty arrays", `{"license_info":"","unix_seconds":[],"price":[],"unit":"EUR/MWh","deprecated":true}`, false},
		{"missing price", `{"license_info":"","unix_seconds":[1],"unit":"EUR/MWh","deprecated":false}`, true},
		{"missing everything", `{}`, true},
		{"wrong type", `{"license_info":"","unix_seconds":["soon"],"price":[1],"unit":"x","deprecated":false}`, true},
		{"array body", `[1,2,3]`, true},
		{"empty body", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := DecodePriceResponse([]byte(tt.body))
			if tt.wantErr {
				var de *model.DecodeError
				assert.True(t, errors.As(err, &de), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, raw)
		})
	}
}
