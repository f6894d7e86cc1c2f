package numerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name string
		last string
		want string
	}{
		{"no prior orders", "", "ENC001"},
		{"increments", "ENC007", "ENC008"},
		{"carries digit", "ENC009", "ENC010"},
		{"grows past width", "ENC999", "ENC1000"},
		{"ignores foreign characters", "E-N-C 0 4 2", "ENC043"},
		{"no digits", "ENC", "ENC001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next("ENC", 3, tt.last))
		})
	}
}

func TestFormat_DefaultWidth(t *testing.T) {
	assert.Equal(t, "ENC005", Format("ENC", 0, 5))
	assert.Equal(t, "X00012", Format("X", 5, 12))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(7), ParseNumber("ENC007"))
	assert.Equal(t, int64(0), ParseNumber(""))
	assert.Equal(t, int64(0), ParseNumber("abc"))
}
