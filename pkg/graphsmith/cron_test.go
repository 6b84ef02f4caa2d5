package graphsmith

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCron(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"five fields", "0 9 * * 1", "0 9 * * 1", true},
		{"extra whitespace", "  0   9 * *   1 ", "0 9 * * 1", true},
		{"ranges and steps", "*/15 9-17 * * 1-5", "*/15 9-17 * * 1-5", true},
		{"daily alias", "@daily", "0 0 * * *", true},
		{"hourly alias", "@hourly", "0 * * * *", true},
		{"weekly alias", "@weekly", "0 0 * * 0", true},
		{"alias case insensitive", "@Daily", "0 0 * * *", true},
		{"six fields", "0 0 9 * * 1", "", false},
		{"four fields", "9 * * 1", "", false},
		{"words", "every monday at 9", "", false},
		{"empty", "", "", false},
		{"unknown alias", "@fortnightly", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeCron(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
