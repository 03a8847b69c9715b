package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactProperties(t *testing.T) {
	p, err := CompactProperties([]byte(" { \"a\" : [1, 2] } "))
	require.NoError(t, err)
	assert.Equal(t, Properties(`{"a":[1,2]}`), p)

	for _, raw := range []string{"", "  ", "null", " null "} {
		p, err := CompactProperties([]byte(raw))
		require.NoError(t, err)
		assert.Nil(t, p, "%q", raw)
	}

	_, err = CompactProperties([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestEvent_PropertiesDecodeCompact(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"name":"open","properties":{
		"plan": "pro"
	}}`), &ev))
	assert.Equal(t, Properties(`{"plan":"pro"}`), ev.Properties)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"open","properties":null}`), &ev))
	assert.Nil(t, ev.Properties)
	assert.Equal(t, "", ev.Values()[3])
}
