package config

import (
	"fmt"
	"strings"
)

// DefaultEndpointURL is the local development server assumed when a schema
// declares no endpoint.
const DefaultEndpointURL = "http://localhost:4000/graphql"

// EndpointSpec is the raw endpoint of a schema dependency before defaulting.
// It is either a BareEndpoint or a DetailedEndpoint.
type EndpointSpec interface {
	endpointSpec()
}

// BareEndpoint is an endpoint given as a plain URL string.
type BareEndpoint string

// DetailedEndpoint is an endpoint given as a structured record.
type DetailedEndpoint EndpointConfig

func (BareEndpoint) endpointSpec()      {}
func (*DetailedEndpoint) endpointSpec() {}

// ParseEndpointSpec classifies a raw endpoint value. A nil value yields a
// nil spec.
func ParseEndpointSpec(raw any) (EndpointSpec, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return BareEndpoint(v), nil
	case map[string]any:
		ep := &DetailedEndpoint{}
		var err error
		if ep.URL, err = optionalString(v, "url"); err != nil {
			return nil, err
		}
		if ep.Subscriptions, err = optionalString(v, "subscriptions"); err != nil {
			return nil, err
		}
		if ep.SkipSSLValidation, err = optionalBool(v, "skipSSLValidation"); err != nil {
			return nil, err
		}
		if h, ok := v["headers"]; ok && h != nil {
			headers, ok := h.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: endpoint headers must be an object, got %T", ErrInvalidConfig, h)
			}
			ep.Headers = make(map[string]string, len(headers))
			for name, value := range headers {
				s, ok := value.(string)
				if !ok {
					return nil, fmt.Errorf("%w: endpoint header %q must be a string, got %T", ErrInvalidConfig, name, value)
				}
				ep.Headers[name] = s
			}
		}
		return ep, nil
	default:
		return nil, fmt.Errorf("%w: endpoint must be a string or an object, got %T", ErrInvalidConfig, raw)
	}
}

// DefaultEndpoint settles an endpoint spec into an EndpointConfig. Without a
// spec, useDefault selects DefaultEndpointURL; otherwise the result is nil.
// The subscriptions URL is derived from the HTTP URL when unset.
func DefaultEndpoint(spec EndpointSpec, useDefault bool) *EndpointConfig {
	var ep *EndpointConfig
	switch s := spec.(type) {
	case BareEndpoint:
		ep = &EndpointConfig{URL: string(s)}
	case *DetailedEndpoint:
		if s != nil {
			ep = (*EndpointConfig)(s).Clone()
		}
	}

	if ep == nil {
		if !useDefault {
			return nil
		}
		ep = &EndpointConfig{URL: DefaultEndpointURL}
	}

	if ep.Subscriptions == "" && ep.URL != "" {
		ep.Subscriptions = SubscriptionsURL(ep.URL)
	}
	return ep
}

// SubscriptionsURL derives the WebSocket URL from an HTTP URL by replacing
// the first occurrence of "http" with "ws".
func SubscriptionsURL(url string) string {
	return strings.Replace(url, "http", "ws", 1)
}
