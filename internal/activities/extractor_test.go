package activities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeExtractPayload_StringPayload(t *testing.T) {
	data := json.RawMessage(`"some extracted text"`)
	findings := normalizeExtractPayload(data, "https://example.com")
	assert.Equal(t, []Finding{{Text: "some extracted text", Source: "https://example.com"}}, findings)
}

func TestNormalizeExtractPayload_EmptyStringPayload(t *testing.T) {
	data := json.RawMessage(`""`)
	assert.Nil(t, normalizeExtractPayload(data, "https://example.com"))
}

func TestNormalizeExtractPayload_ListPayload(t *testing.T) {
	data := json.RawMessage(`["alpha", "beta", ""]`)
	findings := normalizeExtractPayload(data, "src")
	assert.Len(t, findings, 2)
	assert.Equal(t, "alpha", findings[0].Text)
	assert.Equal(t, "beta", findings[1].Text)
}

func TestNormalizeExtractPayload_ObjectPayload(t *testing.T) {
	data := json.RawMessage(`{"names":["a","b"]}`)
	findings := normalizeExtractPayload(data, "src")
	assert.Len(t, findings, 1)
	assert.JSONEq(t, `{"names":["a","b"]}`, findings[0].Text)
}

func TestNormalizeExtractPayload_EmptyData(t *testing.T) {
	assert.Nil(t, normalizeExtractPayload(nil, "src"))
}

func TestIsSentinelEmpty(t *testing.T) {
	assert.True(t, isSentinelEmpty(json.RawMessage(`{"names":[]}`)))
	assert.False(t, isSentinelEmpty(json.RawMessage(`{"names":["a"]}`)))
}

func TestPow2(t *testing.T) {
	assert.Equal(t, 1, pow2(0))
	assert.Equal(t, 2, pow2(1))
	assert.Equal(t, 4, pow2(2))
	assert.Equal(t, 8, pow2(3))
}
