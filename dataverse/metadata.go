package dataverse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// odataList is the wrapper object Dataverse metadata endpoints return.
type odataList[T any] struct {
	Value []T `json:"value"`
}

// EntityDefinition describes one Dataverse table.
type EntityDefinition struct {
	ODataContext       string          `json:"@odata.context,omitempty"`
	LogicalName        string          `json:"LogicalName"`
	SchemaName         string          `json:"SchemaName"`
	DisplayName        json.RawMessage `json:"DisplayName,omitempty"`
	EntitySetName      string          `json:"EntitySetName"`
	IsCustomEntity     bool            `json:"IsCustomEntity"`
	PrimaryIDAttribute string          `json:"PrimaryIdAttribute,omitempty"`
}

// EntityAttribute describes one column of a Dataverse table.
type EntityAttribute struct {
	LogicalName           string `json:"LogicalName"`
	SchemaName            string `json:"SchemaName"`
	AttributeType         string `json:"AttributeType,omitempty"`
	IsCustomAttribute     bool   `json:"IsCustomAttribute,omitempty"`
	IsValidODataAttribute bool   `json:"IsValidODataAttribute,omitempty"`
	IsValidForRead        bool   `json:"IsValidForRead,omitempty"`
}

const entityDefinitionSelect = "LogicalName,SchemaName,DisplayName,EntitySetName,IsCustomEntity,PrimaryIdAttribute"

// ListEntityDefinitions lists the tables of the environment.
func (c *ServiceClient) ListEntityDefinitions(ctx context.Context) ([]EntityDefinition, error) {
	u := c.baseURL + "/" + apiPath + "/EntityDefinitions?" + url.Values{
		"$select": {entityDefinitionSelect},
	}.Encode()

	body, err := c.get(ctx, u, nil)
	if err != nil {
		return nil, err
	}

	var parsed odataList[EntityDefinition]
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return parsed.Value, nil
}

// GetEntityMetadata fetches the definition of a single table by logical name.
func (c *ServiceClient) GetEntityMetadata(ctx context.Context, logicalName string) (*EntityDefinition, error) {
	u := c.baseURL + "/" + apiPath + "/EntityDefinitions(LogicalName='" + escapeODataKey(logicalName) + "')"

	body, err := c.get(ctx, u, nil)
	if err != nil {
		return nil, err
	}

	var parsed EntityDefinition
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &parsed, nil
}

// ListEntityAttributes lists the readable OData columns of a table.
func (c *ServiceClient) ListEntityAttributes(ctx context.Context, logicalName string) ([]EntityAttribute, error) {
	u := c.baseURL + "/" + apiPath + "/EntityDefinitions(LogicalName='" + escapeODataKey(logicalName) + "')/Attributes?" + url.Values{
		"$select": {"LogicalName,SchemaName,AttributeType,IsCustomAttribute,IsValidODataAttribute,IsValidForRead"},
		"$filter": {"IsValidODataAttribute eq true and IsValidForRead eq true"},
	}.Encode()

	body, err := c.get(ctx, u, nil)
	if err != nil {
		return nil, err
	}

	var parsed odataList[EntityAttribute]
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return parsed.Value, nil
}

// escapeODataKey doubles single quotes inside an OData key literal.
func escapeODataKey(key string) string {
	return strings.ReplaceAll(key, "'", "''")
}
