package srt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultBaseURL is the SRT mobile application backend.
const DefaultBaseURL = "https://app.srail.or.kr:443"

const userAgent = "Mozilla/5.0 (Linux; Android 5.1.1; LGM-V300K Build/N2G47H) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Version/4.0 Chrome/39.0.0.0 Mobile Safari/537.36SRT-APP-Android V.1.0.6"

// Endpoint is a path on the SRT backend.
type Endpoint string

const (
	EndpointMain           Endpoint = "/main/main.do"
	EndpointLogin          Endpoint = "/apb/selectListApb01080_n.do"
	EndpointLogout         Endpoint = "/login/loginOut.do"
	EndpointSearchSchedule Endpoint = "/ara/selectListAra10007_n.do"
	EndpointReserve        Endpoint = "/arc/selectListArc05013_n.do"
	EndpointTickets        Endpoint = "/atc/selectListAtc14016_n.do"
	EndpointTicketInfo     Endpoint = "/ard/selectListArd02017_n.do"
	EndpointCancel         Endpoint = "/ard/selectListArd02045_n.do"
	EndpointStandbyOption  Endpoint = "/ata/selectListAta01135_n.do"
	EndpointPayment        Endpoint = "/ata/selectListAta09036_n.do"
)

// Response is a raw reply from the backend.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the transport status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Poster posts URL-encoded forms to the SRT backend.
type Poster interface {
	Post(ctx context.Context, endpoint Endpoint, form url.Values) (*Response, error)
}

// Client is an SRT API client that keeps session cookies between calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new SRT client.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

// URL returns the absolute URL of an endpoint.
func (c *Client) URL(endpoint Endpoint) string {
	return c.baseURL + string(endpoint)
}

// Post sends form to endpoint. Status codes are not judged here.
func (c *Client) Post(ctx context.Context, endpoint Endpoint, form url.Values) (*Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
