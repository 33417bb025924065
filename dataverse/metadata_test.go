package dataverse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEntityDefinitions(t *testing.T) {
	fs, srv := newFetchServer(t, `{
		"value": [
			{"LogicalName": "account", "SchemaName": "Account", "EntitySetName": "accounts", "IsCustomEntity": false, "PrimaryIdAttribute": "accountid"},
			{"LogicalName": "new_widget", "SchemaName": "new_Widget", "EntitySetName": "new_widgets", "IsCustomEntity": true}
		]
	}`)
	client := NewServiceClient(srv.URL, StaticToken("tok"))

	definitions, err := client.ListEntityDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, definitions, 2)
	assert.Equal(t, "account", definitions[0].LogicalName)
	assert.Equal(t, "accounts", definitions[0].EntitySetName)
	assert.True(t, definitions[1].IsCustomEntity)

	req := fs.requests[0]
	assert.Equal(t, "/api/data/v9.2/EntityDefinitions", req.URL.Path)
	assert.Equal(t, entityDefinitionSelect, req.URL.Query().Get("$select"))
}

func TestGetEntityMetadata(t *testing.T) {
	fs, srv := newFetchServer(t, `{"LogicalName": "account", "SchemaName": "Account", "EntitySetName": "accounts"}`)
	client := NewServiceClient(srv.URL, StaticToken("tok"))

	definition, err := client.GetEntityMetadata(context.Background(), "account")
	require.NoError(t, err)
	assert.Equal(t, "accounts", definition.EntitySetName)
	assert.Equal(t, "/api/data/v9.2/EntityDefinitions(LogicalName='account')", fs.requests[0].URL.Path)
}

func TestListEntityAttributes(t *testing.T) {
	fs, srv := newFetchServer(t, `{
		"value": [
			{"LogicalName": "name", "SchemaName": "Name", "AttributeType": "String", "IsValidODataAttribute": true, "IsValidForRead": true}
		]
	}`)
	client := NewServiceClient(srv.URL, StaticToken("tok"))

	attributes, err := client.ListEntityAttributes(context.Background(), "account")
	require.NoError(t, err)
	require.Len(t, attributes, 1)
	assert.Equal(t, "name", attributes[0].LogicalName)
	assert.Equal(t, "String", attributes[0].AttributeType)

	req := fs.requests[0]
	assert.Equal(t, "/api/data/v9.2/EntityDefinitions(LogicalName='account')/Attributes", req.URL.Path)
	assert.Equal(t, "IsValidODataAttribute eq true and IsValidForRead eq true", req.URL.Query().Get("$filter"))
}

func TestMetadataMalformedBody(t *testing.T) {
	_, srv := newFetchServer(t, `not json`)
	client := NewServiceClient(srv.URL, StaticToken("tok"))

	_, err := client.ListEntityDefinitions(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestEscapeODataKey(t *testing.T) {
	assert.Equal(t, "o''brien", escapeODataKey("o'brien"))
	assert.Equal(t, "plain", escapeODataKey("plain"))
}
