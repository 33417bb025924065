package dataverse

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// normalizeRecordID strips optional braces and validates the GUID, returning
// its canonical lowercase form.
func normalizeRecordID(id string) (string, error) {
	trimmed := strings.Trim(id, "{}")
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid record id %q: %w", id, err)
	}
	return parsed.String(), nil
}

// UpdateEntity applies a partial update to one record. Attribute values are
// sent as-is; use the Web API attribute names.
func (c *ServiceClient) UpdateEntity(ctx context.Context, entitySet, id string, attributes map[string]any) error {
	recordID, err := normalizeRecordID(id)
	if err != nil {
		return err
	}

	u := c.baseURL + "/" + apiPath + "/" + entitySet + "(" + recordID + ")"
	if _, err := c.doJSON(ctx, http.MethodPatch, u, attributes); err != nil {
		return err
	}
	return nil
}

// DeleteEntity deletes one record.
func (c *ServiceClient) DeleteEntity(ctx context.Context, entitySet, id string) error {
	recordID, err := normalizeRecordID(id)
	if err != nil {
		return err
	}

	u := c.baseURL + "/" + apiPath + "/" + entitySet + "(" + recordID + ")"
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if _, err := c.do(req); err != nil {
		return err
	}
	return nil
}
