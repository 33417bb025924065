package exporter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/dataverse"
)

func sampleEntities() []dataverse.Entity {
	return []dataverse.Entity{
		{
			dataverse.RowNumberAttribute: dataverse.IntValue(1),
			"name":                       dataverse.StringValue("Contoso"),
			"revenue":                    dataverse.FloatValue(1.5),
			"active":                     dataverse.BoolValue(true),
		},
		{
			dataverse.RowNumberAttribute: dataverse.IntValue(2),
			"name":                       dataverse.StringValue("Fabrikam"),
			"parentid":                   dataverse.NullValue(),
		},
	}
}

func TestColumnsOrdering(t *testing.T) {
	columns := Columns(sampleEntities())
	assert.Equal(t, []string{dataverse.RowNumberAttribute, "active", "name", "parentid", "revenue"}, columns)
}

func TestColumnsWithoutRowNumber(t *testing.T) {
	columns := Columns([]dataverse.Entity{{"b": dataverse.IntValue(1), "a": dataverse.IntValue(2)}})
	assert.Equal(t, []string{"a", "b"}, columns)

	assert.Empty(t, Columns(nil))
}

func TestStreamEntitiesCSV(t *testing.T) {
	var buf bytes.Buffer
	result, err := StreamEntities(context.Background(), sampleEntities(), NewCSVEncoder(&buf))
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.RowsProcessed)

	want := "__rownum,active,name,parentid,revenue\n" +
		"1,true,Contoso,NULL,1.5\n" +
		"2,NULL,Fabrikam,NULL,NULL\n"
	assert.Equal(t, want, buf.String())
}

func TestStreamEntitiesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	result, err := StreamEntities(context.Background(), sampleEntities(), NewJSONEncoder(&buf))
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.RowsProcessed)

	scanner := bufio.NewScanner(&buf)
	require.True(t, scanner.Scan())
	var first map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &first))
	assert.Equal(t, "Contoso", first["name"])
	assert.Equal(t, 1.5, first["revenue"])
	assert.Equal(t, true, first["active"])
	assert.Equal(t, float64(1), first[dataverse.RowNumberAttribute])

	require.True(t, scanner.Scan())
	var second map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &second))
	assert.Nil(t, second["parentid"], "missing and null attributes serialize as null")
	assert.Nil(t, second["active"])

	assert.False(t, scanner.Scan(), "exactly one line per row")
}

func TestStreamEntitiesHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := StreamEntities(ctx, sampleEntities(), NewCSVEncoder(&buf))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSVCellFormulaGuard(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", csvCell(dataverse.StringValue("=SUM(A1)")))
	assert.Equal(t, "'@cmd", csvCell(dataverse.StringValue("@cmd")))
	assert.Equal(t, "'-5", csvCell(dataverse.IntValue(-5)), "negative numbers render guarded too")
	assert.Equal(t, "plain", csvCell(dataverse.StringValue("plain")))
	assert.Equal(t, "NULL", csvCell(dataverse.NullValue()))
	assert.Equal(t, "", csvCell(dataverse.StringValue("")))
}
