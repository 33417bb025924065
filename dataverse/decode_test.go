package dataverse

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFetchPage(t *testing.T) {
	body := `{
		"@odata.context": "https://org.crm.dynamics.com/api/data/v9.2/$metadata#accounts",
		"value": [{"name": "a"}, {"name": "b"}],
		"@Microsoft.Dynamics.CRM.morerecords": true,
		"@Microsoft.Dynamics.CRM.fetchxmlpagingcookie": "<cookie pagingcookie=\"AB\" istracking=\"False\" />"
	}`
	page, err := decodeFetchPage([]byte(body))
	require.NoError(t, err)
	assert.Len(t, page.records, 2)
	assert.True(t, page.more)
	assert.True(t, page.hasCookie)
	assert.Equal(t, "AB", page.cookie)
}

func TestDecodeFetchPageLastPage(t *testing.T) {
	page, err := decodeFetchPage([]byte(`{"value": []}`))
	require.NoError(t, err)
	assert.Empty(t, page.records)
	assert.False(t, page.more)
	assert.False(t, page.hasCookie)
}

func TestDecodeFetchPageMalformed(t *testing.T) {
	for _, body := range []string{
		`[1, 2]`,
		`"text"`,
		`{"notvalue": []}`,
		`{"value": {}}`,
		`{"value": "rows"}`,
		`not json at all`,
	} {
		_, err := decodeFetchPage([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedResponse, "body: %s", body)
	}
}

func TestDecodeMoreRecordsVariants(t *testing.T) {
	cases := map[string]bool{
		`true`:    true,
		`false`:   false,
		`"true"`:  true,
		`"True"`:  true,
		`"TRUE"`:  true,
		`"false"`: false,
		`"yes"`:   false,
		`1`:       false,
		`null`:    false,
	}
	for raw, want := range cases {
		assert.Equal(t, want, decodeMoreRecords(json.RawMessage(raw)), "raw: %s", raw)
	}
	assert.False(t, decodeMoreRecords(nil))
}

func TestExtractPagingCookieDoubleDecodes(t *testing.T) {
	cookie := `<cookie page="1"><accountid last="{X}" first="{Y}" /></cookie>`
	encoded := url.PathEscape(url.PathEscape(cookie))
	annotation := `<cookie pagingcookie="` + encoded + `" istracking="False" />`

	got, ok := extractPagingCookie(annotation)
	require.True(t, ok)
	assert.Equal(t, cookie, got)
}

func TestExtractPagingCookiePlusIsLiteral(t *testing.T) {
	// The cookie is path-encoded, not form-encoded: '+' stays a plus sign.
	got, ok := extractPagingCookie(`<cookie pagingcookie="a+b" />`)
	require.True(t, ok)
	assert.Equal(t, "a+b", got)
}

func TestExtractPagingCookieMissing(t *testing.T) {
	_, ok := extractPagingCookie(`<cookie istracking="False" />`)
	assert.False(t, ok)

	_, ok = extractPagingCookie(`<cookie pagingcookie="unterminated`)
	assert.False(t, ok)

	_, ok = extractPagingCookie(`<cookie pagingcookie="%zz" />`)
	assert.False(t, ok, "invalid percent escape yields no cookie")
}

func TestDecodeEntityScalars(t *testing.T) {
	raw := json.RawMessage(`{
		"name": "Contoso",
		"revenue": 1.5,
		"employees": 42,
		"active": true,
		"parentid": null,
		"nested": {"a": 1},
		"list": [1, 2]
	}`)
	entity, err := decodeEntity(raw)
	require.NoError(t, err)

	assert.Equal(t, StringValue("Contoso"), entity["name"])
	assert.Equal(t, FloatValue(1.5), entity["revenue"])
	assert.Equal(t, IntValue(42), entity["employees"])
	assert.Equal(t, BoolValue(true), entity["active"])
	assert.Equal(t, NullValue(), entity["parentid"])

	_, ok := entity["nested"]
	assert.False(t, ok, "nested objects are not scalar attributes")
	_, ok = entity["list"]
	assert.False(t, ok, "arrays are not scalar attributes")
}

func TestDecodeEntityNotAnObject(t *testing.T) {
	_, err := decodeEntity(json.RawMessage(`[1, 2]`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestCoerceValueNumericOrdering(t *testing.T) {
	v, ok := coerceValue(json.Number("9223372036854775807"))
	require.True(t, ok)
	assert.Equal(t, IntValue(9223372036854775807), v, "MaxInt64 stays signed")

	v, ok = coerceValue(json.Number("-9223372036854775808"))
	require.True(t, ok)
	assert.Equal(t, IntValue(-9223372036854775808), v)

	v, ok = coerceValue(json.Number("9223372036854775808"))
	require.True(t, ok)
	f, isFloat := v.Float()
	require.True(t, isFloat, "MaxInt64+1 degrades to float")
	assert.Equal(t, float64(9223372036854775808), f)

	v, ok = coerceValue(json.Number("18446744073709551615"))
	require.True(t, ok)
	f, isFloat = v.Float()
	require.True(t, isFloat)
	assert.Equal(t, float64(18446744073709551615), f)

	v, ok = coerceValue(json.Number("2.5"))
	require.True(t, ok)
	assert.Equal(t, FloatValue(2.5), v)

	v, ok = coerceValue(json.Number("1e3"))
	require.True(t, ok)
	assert.Equal(t, FloatValue(1000), v, "exponent notation is a float even when integral")
}
