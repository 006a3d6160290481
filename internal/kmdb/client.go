// Package kmdb wraps the KMDb open API for movie search.
package kmdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.koreafilm.or.kr/openapi-data2/wisenut/search_api/search_json2.jsp"

// Protected query keys. Their values always come from server configuration;
// caller-supplied values are discarded.
const (
	keyServiceKey = "ServiceKey"
	keyCollection = "collection"
	keyDetail     = "detail"
)

const (
	defaultCollection = "kmdb_new2"
	defaultDetail     = "Y"
	defaultListCount  = "20"
)

type Client struct {
	serviceKey string
	baseURL    string
	http       *http.Client
}

// New returns a client for the KMDb search API. baseURL may be empty to use
// the production endpoint.
func New(serviceKey, baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		serviceKey: strings.TrimSpace(serviceKey),
		baseURL:    baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BuildQuery merges caller filters with the server-controlled defaults.
// ServiceKey, collection and detail always win over caller input; every other
// caller key passes through unchanged. listCount defaults to 20 but callers
// may override it.
func (c *Client) BuildQuery(caller url.Values) (url.Values, error) {
	if c.serviceKey == "" {
		return nil, &Error{Kind: KindConfigMissing}
	}

	values := url.Values{}
	values.Set(keyServiceKey, c.serviceKey)
	values.Set(keyCollection, defaultCollection)
	values.Set(keyDetail, defaultDetail)
	values.Set("listCount", defaultListCount)

	for key, vals := range caller {
		if key == keyServiceKey || key == keyCollection || key == keyDetail {
			continue
		}
		values.Del(key)
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	return values, nil
}

type searchResponse struct {
	Data []struct {
		Result []json.RawMessage `json:"Result"`
	} `json:"Data"`
}

// Search performs exactly one upstream call and returns the raw result
// records. A well-formed response without a result array is an empty success,
// not an error. No retries.
func (c *Client) Search(ctx context.Context, caller url.Values) ([]json.RawMessage, error) {
	values, err := c.BuildQuery(caller)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close after full read

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindUpstreamHTTP, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Kind: KindUpstreamParse, Body: string(body), Err: err}
	}

	if len(payload.Data) == 0 || payload.Data[0].Result == nil {
		return []json.RawMessage{}, nil
	}
	return payload.Data[0].Result, nil
}
