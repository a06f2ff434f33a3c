package mains

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForTimezone(t *testing.T) {
	tests := []struct {
		timezone string
		want     int
	}{
		{"Europe/London", Hz50},
		{"Europe/Berlin", Hz50},
		{"Australia/Sydney", Hz50},
		{"Asia/Tokyo", Hz50},

		{"America/New_York", Hz60},
		{"America/Toronto", Hz60},
		{"America/Mexico_City", Hz60},
		{"America/Sao_Paulo", Hz60},
		{"Asia/Seoul", Hz60},
		{"Asia/Manila", Hz60},

		{"UTC", Fallback},
		{"GMT", Fallback},
		{"Etc/GMT+5", Fallback},
		{"Nowhere/Imaginary", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			assert.Equal(t, tt.want, ForTimezone(tt.timezone))
		})
	}
}

func TestForCountry(t *testing.T) {
	assert.Equal(t, Hz60, ForCountry("Cuba"))
	assert.Equal(t, Hz50, ForCountry("Japan"))
	assert.Equal(t, Hz50, ForCountry("France"))
	assert.Equal(t, Fallback, ForCountry(""))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(50))
	assert.True(t, Valid(60))
	assert.False(t, Valid(55))
	assert.False(t, Valid(0))
}

func TestFrequency(t *testing.T) {
	assert.True(t, Valid(Frequency()))
}
