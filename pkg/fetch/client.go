package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/craigrmccown/apollo-cli/pkg/config"
	"github.com/craigrmccown/apollo-cli/pkg/graphql"
	"github.com/craigrmccown/apollo-cli/pkg/logging"
	"github.com/craigrmccown/apollo-cli/pkg/resolve"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 30 * time.Second

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// maxErrorBody caps how much of a failed response ends up in an HTTPError.
const maxErrorBody = 1024

var _ resolve.Fetcher = (*Client)(nil)

// Client fetches introspection results from GraphQL endpoints, local files
// and the schema registry.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger requests are logged to at debug level.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a new fetch client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.WithComponent(c.log, "fetch")
	return c
}

// FetchSchema introspects the endpoint when its URL is http(s). Any other
// URL names a file, relative to projectDir, holding either an introspection
// result in JSON or a schema in SDL.
func (c *Client) FetchSchema(ctx context.Context, endpoint *config.EndpointConfig, projectDir string) (*graphql.IntrospectionSchema, error) {
	if endpoint == nil || endpoint.URL == "" {
		return nil, fmt.Errorf("%w: empty endpoint", ErrNoIntrospection)
	}
	if !isHTTP(endpoint.URL) {
		return c.readSchemaFile(endpoint.URL, projectDir)
	}

	req := graphQLRequest{
		Query:         graphql.IntrospectionQuery,
		OperationName: "IntrospectionQuery",
		Variables:     map[string]any{},
	}
	var data graphql.IntrospectionResult
	if err := c.query(ctx, endpoint.URL, endpoint.Headers, endpoint.SkipSSLValidation, req, &data); err != nil {
		return nil, err
	}
	if data.Schema == nil {
		return nil, fmt.Errorf("%w from %s", ErrNoIntrospection, endpoint.URL)
	}
	return data.Schema, nil
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// query posts a GraphQL request and decodes the response's data into out.
func (c *Client) query(ctx context.Context, url string, headers map[string]string, insecure bool, body graphQLRequest, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	c.log.Debug("graphql request",
		"url", url,
		"operation", body.OperationName,
		"requestId", requestID,
	)

	start := time.Now()
	resp, err := c.client(insecure).Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("graphql response",
		"url", url,
		"status", resp.StatusCode,
		"requestId", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{URL: url, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var result graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	if len(result.Errors) > 0 {
		return &GraphQLErrors{URL: url, Errors: result.Errors}
	}
	if len(result.Data) == 0 || string(result.Data) == "null" {
		return fmt.Errorf("%w: response from %s has no data", ErrNoIntrospection, url)
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to decode data from %s: %w", url, err)
	}
	return nil
}

// client returns the HTTP client to use, with certificate verification
// disabled when insecure is set.
func (c *Client) client(insecure bool) *http.Client {
	if !insecure {
		return c.httpClient
	}
	var transport *http.Transport
	if t, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // opted in via skipSSLValidation

	hc := *c.httpClient
	hc.Transport = transport
	return &hc
}

func isHTTP(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
