package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseParams(t *testing.T) {
	params := parseParams([]string{
		"false", "true", "null", "2000", "0.1", "-1",
		"RKxTdfmtxtfLDKZBgx6SvNkBtNu9jRYnLh", "NaN", "[1]", `"quoted"`, "",
	})

	assert.Equal(t, []interface{}{
		false, true, nil, float64(2000), 0.1, float64(-1),
		"RKxTdfmtxtfLDKZBgx6SvNkBtNu9jRYnLh", "NaN", "[1]", `"quoted"`, "",
	}, params)
	assert.Empty(t, parseParams(nil))
}
