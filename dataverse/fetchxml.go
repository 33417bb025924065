package dataverse

import (
	"fmt"
	"strconv"
	"strings"
)

// This file is a string-level editor for attributes on the root <fetch> tag.
// It deliberately avoids a real XML parser so the caller's document keeps its
// exact formatting and whitespace outside the root tag. It is not a
// general-purpose XML tool and must not be used on anything but the <fetch>
// root element.

// aggregatePageSize is the page cap injected into aggregate queries that do
// not specify their own count attribute. Aggregate queries otherwise default
// to an undersized page on the server.
const aggregatePageSize = 5000

var xmlAttrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// applyPaging sets the page attribute on the root tag and, when cookie is
// non-empty, the paging-cookie attribute with the cookie escaped for XML
// attribute context. Re-applying with identical arguments yields identical
// output.
func applyPaging(fetchxml string, page int, cookie string) (string, error) {
	updated, err := upsertFetchAttr(fetchxml, "page", strconv.Itoa(page))
	if err != nil {
		return "", err
	}
	if cookie != "" {
		updated, err = upsertFetchAttr(updated, "paging-cookie", xmlAttrEscaper.Replace(cookie))
		if err != nil {
			return "", err
		}
	}
	return updated, nil
}

// ensureAggregatePageSize injects a count attribute set to pageSize into
// aggregate queries that have none. Non-aggregate queries and aggregate
// queries with an explicit count pass through unchanged.
func ensureAggregatePageSize(fetchxml string, pageSize int) (string, error) {
	if !strings.Contains(fetchxml, `aggregate="true"`) {
		return fetchxml, nil
	}

	hasCount, err := fetchTagHasAttr(fetchxml, "count")
	if err != nil {
		return "", err
	}
	if hasCount {
		return fetchxml, nil
	}

	return upsertFetchAttr(fetchxml, "count", strconv.Itoa(pageSize))
}

// fetchTagHasAttr reports whether the root tag carries the named attribute.
func fetchTagHasAttr(fetchxml, name string) (bool, error) {
	start, tagEnd, err := locateFetchTag(fetchxml)
	if err != nil {
		return false, err
	}
	return strings.Contains(fetchxml[start:tagEnd+1], name+"="), nil
}

// upsertFetchAttr sets name=value on the root tag, replacing an existing
// value in place (keeping its original quote character) or inserting the
// attribute before the tag's closing '>'.
func upsertFetchAttr(fetchxml, name, value string) (string, error) {
	start, tagEnd, err := locateFetchTag(fetchxml)
	if err != nil {
		return "", err
	}

	tag := fetchxml[start : tagEnd+1]
	attrKey := name + "="
	if attrIdx := strings.Index(tag, attrKey); attrIdx >= 0 {
		quoteIdx := attrIdx + len(attrKey)
		if quoteIdx >= len(tag) {
			return "", fmt.Errorf("%w: attribute %q is not quoted", ErrQuerySyntax, name)
		}
		quote := tag[quoteIdx]
		if quote != '"' && quote != '\'' {
			return "", fmt.Errorf("%w: attribute %q is not quoted", ErrQuerySyntax, name)
		}
		valueStart := quoteIdx + 1
		rel := strings.IndexByte(tag[valueStart:], quote)
		if rel < 0 {
			return "", fmt.Errorf("%w: attribute %q is not quoted", ErrQuerySyntax, name)
		}
		valueEnd := valueStart + rel
		return fetchxml[:start+valueStart] + value + fetchxml[start+valueEnd:], nil
	}

	insertAt := tagEnd
	if fetchxml[tagEnd-1] == '/' {
		// Self-closing root tag: keep the attribute inside the tag.
		insertAt--
	}
	return fetchxml[:insertAt] + " " + name + `="` + value + `"` + fetchxml[insertAt:], nil
}

// locateFetchTag returns the index of the root tag's opening '<' and of its
// closing '>'.
func locateFetchTag(fetchxml string) (start, tagEnd int, err error) {
	start = strings.Index(fetchxml, "<fetch")
	if start < 0 {
		return 0, 0, fmt.Errorf("%w: must contain a <fetch> element", ErrQuerySyntax)
	}
	rel := strings.IndexByte(fetchxml[start:], '>')
	if rel < 0 {
		return 0, 0, fmt.Errorf("%w: <fetch> element is not closed", ErrQuerySyntax)
	}
	return start, start + rel, nil
}
