package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBStringArrayValue(t *testing.T) {
	v, err := JSONBStringArray{"egg", "tomato"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `["egg","tomato"]`, string(v.([]byte)))

	empty, err := JSONBStringArray{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)
}

func TestJSONBStringArrayScan(t *testing.T) {
	var a JSONBStringArray
	require.NoError(t, a.Scan([]byte(`["rice","egg"]`)))
	assert.Equal(t, JSONBStringArray{"rice", "egg"}, a)

	var fromString JSONBStringArray
	require.NoError(t, fromString.Scan(`["basil"]`))
	assert.Equal(t, JSONBStringArray{"basil"}, fromString)

	var fromNil JSONBStringArray
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)
}
