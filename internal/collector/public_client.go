package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/qepting91/recordsync/internal/domain"
)

type PublicClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	endpoints  Endpoints
}

// PublicOptions configures a PublicClient. Zero values fall back to defaults.
type PublicOptions struct {
	Endpoints    Endpoints
	UserAgent    string
	Timeout      time.Duration
	RateInterval time.Duration
}

func NewPublicClient(o PublicOptions) (*PublicClient, error) {
	if o.Endpoints == nil {
		o.Endpoints = DefaultEndpoints("")
	}
	for _, k := range domain.Kinds {
		if o.Endpoints[k] == "" {
			return nil, fmt.Errorf("no endpoint configured for %s", k)
		}
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}

	// One request per interval; a zero interval disables limiting.
	limit := rate.Inf
	if o.RateInterval > 0 {
		limit = rate.Every(o.RateInterval)
	}

	return &PublicClient{
		httpClient: &http.Client{Timeout: o.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		userAgent:  o.UserAgent,
		endpoints:  o.Endpoints,
	}, nil
}

func (pc *PublicClient) Fetch(ctx context.Context, kind domain.Kind) (domain.Collection, error) {
	url, ok := pc.endpoints[kind]
	if !ok {
		return nil, fmt.Errorf("no endpoint configured for %q", kind)
	}

	if err := pc.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Kind: kind, URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Kind: kind, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if pc.userAgent != "" {
		req.Header.Set("User-Agent", pc.userAgent)
	}

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Kind: kind, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Kind: kind, URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Kind: kind, URL: url, Err: err}
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Err: err}
	}
	return records, nil
}

// decodeRecords requires the body to be exactly one JSON array whose
// elements are all objects.
func decodeRecords(body []byte) (domain.Collection, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var records domain.Collection
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after the array")
	}
	if records == nil {
		return nil, fmt.Errorf("response is not an array")
	}
	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("element %d is not an object", i)
		}
	}
	return records, nil
}
