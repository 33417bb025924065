package dataverse

import (
	"errors"
	"fmt"
)

var (
	// ErrQuerySyntax marks FetchXML that the attribute editor cannot work
	// with: missing <fetch> element, unclosed root tag, or an existing
	// attribute whose value is not quoted. Surfaced before any request is
	// issued.
	ErrQuerySyntax = errors.New("invalid fetchxml")

	// ErrMalformedResponse marks a Web API payload that does not have the
	// expected shape (object with a "value" array of objects).
	ErrMalformedResponse = errors.New("malformed response from dataverse")

	// ErrMissingPagingCookie is returned when the server reports more
	// records but no paging cookie can be extracted from the response.
	// Continuing without a cookie would re-request the same page forever,
	// so the retrieval is aborted instead.
	ErrMissingPagingCookie = errors.New("server reported more records but returned no paging cookie")
)

// APIError is a non-success HTTP response from the Dataverse Web API.
// The body is carried verbatim; the client never retries.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dataverse api error (%d): %s", e.StatusCode, e.Body)
}
