package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSensitiveValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty value", input: "", expected: "(not set)"},
		{name: "single character", input: "a", expected: "*"},
		{name: "two characters", input: "ab", expected: "**"},
		{name: "three characters", input: "abc", expected: "a*c"},
		{name: "exactly 8 characters", input: "password", expected: "p******d"},
		{name: "API key", input: "Hx7pQ2vLk9sT0wYz", expected: "Hx7**********wYz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskSensitiveValue(tt.input))
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		expected  string
	}{
		{name: "shorter than max", input: "hello", maxLength: 10, expected: "hello"},
		{name: "equal to max", input: "hello", maxLength: 5, expected: "hello"},
		{name: "longer than max", input: "hello world", maxLength: 8, expected: "hello..."},
		{name: "very short max", input: "hello world", maxLength: 3, expected: "..."},
		{name: "max length 2", input: "hello world", maxLength: 2, expected: ".."},
		{name: "empty string", input: "", maxLength: 5, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncateString(tt.input, tt.maxLength))
		})
	}
}
