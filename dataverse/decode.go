package dataverse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	annotationMoreRecords  = "@Microsoft.Dynamics.CRM.morerecords"
	annotationPagingCookie = "@Microsoft.Dynamics.CRM.fetchxmlpagingcookie"
)

// fetchPage is the decoded form of one Web API response page. Records stay
// raw so the count-only path never pays for row materialization.
type fetchPage struct {
	records   []json.RawMessage
	more      bool
	cookie    string
	hasCookie bool
}

// decodeFetchPage decodes one page body into its records, more-records flag
// and paging cookie. The payload must be an object carrying a "value" array.
func decodeFetchPage(body []byte) (*fetchPage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	rawValue, ok := envelope["value"]
	if !ok {
		return nil, fmt.Errorf(`%w: missing "value" array`, ErrMalformedResponse)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(rawValue, &records); err != nil {
		return nil, fmt.Errorf(`%w: "value" is not an array`, ErrMalformedResponse)
	}

	page := &fetchPage{
		records: records,
		more:    decodeMoreRecords(envelope[annotationMoreRecords]),
	}

	if raw, ok := envelope[annotationPagingCookie]; ok {
		var annotation string
		if err := json.Unmarshal(raw, &annotation); err == nil {
			if cookie, ok := extractPagingCookie(annotation); ok {
				page.cookie = cookie
				page.hasCookie = true
			}
		}
	}

	return page, nil
}

// decodeMoreRecords treats only boolean true or the case-insensitive string
// "true" as true; anything else, including an absent annotation, is false.
func decodeMoreRecords(raw json.RawMessage) bool {
	if raw == nil {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(s, "true")
	}
	return false
}

// extractPagingCookie pulls the pagingcookie="..." fragment out of the
// annotation and percent-decodes it twice; the server double-encodes the
// cookie it embeds there. A missing fragment is not an error, the caller
// decides what an absent cookie means.
func extractPagingCookie(annotation string) (string, bool) {
	const marker = `pagingcookie="`
	start := strings.Index(annotation, marker)
	if start < 0 {
		return "", false
	}
	start += len(marker)
	rel := strings.IndexByte(annotation[start:], '"')
	if rel < 0 {
		return "", false
	}
	encoded := annotation[start : start+rel]

	once, err := url.PathUnescape(encoded)
	if err != nil {
		return "", false
	}
	twice, err := url.PathUnescape(once)
	if err != nil {
		return "", false
	}
	return twice, true
}

// decodeEntities materializes the raw records of one page into Entity rows.
func decodeEntities(records []json.RawMessage) ([]Entity, error) {
	entities := make([]Entity, 0, len(records))
	for _, raw := range records {
		entity, err := decodeEntity(raw)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func decodeEntity(raw json.RawMessage) (Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: record is not an object", ErrMalformedResponse)
	}

	entity := make(Entity, len(fields))
	for key, field := range fields {
		if value, ok := coerceValue(field); ok {
			entity[key] = value
		}
		// Nested objects and arrays are not scalar attributes; skipped.
	}
	return entity, nil
}

// coerceValue maps a decoded JSON field onto the closed Value variant. The
// numeric ordering is a strict contract: signed 64-bit parse first, then
// unsigned (anything above MaxInt64 converts to float64, losing precision by
// a deterministic rule), then float.
func coerceValue(field any) (Value, bool) {
	switch v := field.(type) {
	case nil:
		return NullValue(), true
	case json.Number:
		if i, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return IntValue(i), true
		}
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return FloatValue(float64(u)), true
		}
		if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return FloatValue(f), true
		}
		return Value{}, false
	case string:
		return StringValue(v), true
	case bool:
		return BoolValue(v), true
	default:
		return Value{}, false
	}
}
