package fetch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoIntrospection is returned when a response or file carries no
	// __schema object.
	ErrNoIntrospection = errors.New("no introspection result")

	// ErrInvalidAPIKey is returned for keys not shaped service:<id>:<secret>.
	ErrInvalidAPIKey = errors.New("invalid engine API key")

	// ErrSchemaNotPublished is returned when the registry has no schema
	// under the requested tag.
	ErrSchemaNotPublished = errors.New("schema not published")

	// ErrUploadFailed is returned when the registry rejects a schema upload.
	ErrUploadFailed = errors.New("schema upload failed")
)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("request to %s failed: status %d", e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// GraphQLError is one entry of a response's errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLErrors is returned when a response carries a non-empty errors
// array.
type GraphQLErrors struct {
	URL    string
	Errors []GraphQLError
}

func (e *GraphQLErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return fmt.Sprintf("errors while fetching %s: %s", e.URL, strings.Join(msgs, "; "))
}
