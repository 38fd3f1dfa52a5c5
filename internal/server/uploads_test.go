package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"Kisumu", "Kisumu"},
		{json.Number("12345678"), "12345678"},
		{json.Number("0712000111"), "0712000111"},
		{json.Number("1.5"), "1.5"},
		{true, "true"},
		{[]any{"a", json.Number("2")}, `["a",2]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stringify(tt.in))
	}
}
