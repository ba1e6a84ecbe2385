package model

import (
	"fmt"
	"time"
)

// Epoch bounds for samples that can be placed on a calendar (years 0001-9999).
const (
	minSampleUnix int64 = -62135596800
	maxSampleUnix int64 = 253402300799
)

// Sample is a single spot-price observation.
type Sample struct {
	UnixSeconds int64   `json:"unix_seconds"`
	Price       float64 `json:"price"`
}

// Time converts the sample timestamp to a UTC instant.
func (s Sample) Time() (time.Time, error) {
	if s.UnixSeconds < minSampleUnix || s.UnixSeconds > maxSampleUnix {
		return time.Time{}, fmt.Errorf("timestamp %d out of range", s.UnixSeconds)
	}
	return time.Unix(s.UnixSeconds, 0).UTC(), nil
}

// PriceSeries is an ordered run of samples sharing one unit.
// Order is whatever the source returned.
type PriceSeries struct {
	Unit    string   `json:"unit"`
	Samples []Sample `json:"samples"`
}

// Len returns the number of samples.
func (p PriceSeries) Len() int { return len(p.Samples) }

// Prices returns the price column.
func (p PriceSeries) Prices() []float64 {
	prices := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		prices[i] = s.Price
	}
	return prices
}

// RawPriceResponse is the JSON body returned by the Energy-Charts price endpoint.
type RawPriceResponse struct {
	LicenseInfo string    `json:"license_info"`
	UnixSeconds []int64   `json:"unix_seconds"`
	Price       []float64 `json:"price"`
	Unit        string    `json:"unit"`
	Deprecated  bool      `json:"deprecated"`
}

// Series pairs unix_seconds[i] with price[i]. Indexes present in only one of the
// arrays cannot form a sample and are reported as unpaired.
func (r *RawPriceResponse) Series() (series PriceSeries, unpaired int) {
	n := len(r.UnixSeconds)
	if len(r.Price) < n {
		n = len(r.Price)
	}
	series = PriceSeries{Unit: r.Unit, Samples: make([]Sample, n)}
	for i := 0; i < n; i++ {
		series.Samples[i] = Sample{UnixSeconds: r.UnixSeconds[i], Price: r.Price[i]}
	}
	unpaired = len(r.UnixSeconds) + len(r.Price) - 2*n
	return series, unpaired
}
