package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextSanitizer(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Vélo de ville", "Vélo de ville"},
		{"ampersand survives", "Café & Co", "Café & Co"},
		{"tags removed", "<b>iPhone</b> 12", "iPhone 12"},
		{"script dropped", `Lampe<script>alert(1)</script>`, "Lampe"},
		{"trimmed", "  Chaise  ", "Chaise"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Sanitize(tt.in))
		})
	}
}

func TestSanitizeFields(t *testing.T) {
	fields := map[string]any{
		"name":   "<i>Table</i>",
		"images": []string{"https://x/1.jpg", "<script></script>"},
		"count":  3,
	}
	got := sanitizeFields(NewTextSanitizer(), fields)

	assert.Equal(t, "Table", got["name"])
	assert.Equal(t, []string{"https://x/1.jpg"}, got["images"])
	assert.Equal(t, 3, got["count"])
}
