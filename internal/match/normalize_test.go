package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Separators
		{"user_name", "username"},
		{"user-name", "username"},
		{"User Name", "username"},
		{"meta.lang", "metalang"},

		// CamelCase variations
		{"userName", "username"},
		{"UserName", "username"},
		{"XMLParser", "xmlparser"},
		{"createdAt", "createdat"},

		// Case only
		{"USER_NAME", "username"},

		// Edge cases
		{"", ""},
		{"a", "a"},
		{"__", ""},
		{"Größe", "größe"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"meta_source_kind", []string{"meta", "source", "kind"}},
		{"createdAt", []string{"created", "at"}},
		{"HTTPStatus", []string{"http", "status"}},
		{"getHTTPResponse", []string{"get", "http", "response"}},
		{"order2Id", []string{"order2", "id"}},
		{"ID", []string{"id"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}
