package jsdom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func styles(m map[string]string) func(string) string {
	return func(prop string) string { return m[prop] }
}

func TestBox(t *testing.T) {
	tests := []struct {
		name      string
		style     map[string]string
		content   float64
		setHeight float64
	}{
		{
			name:      "content-box ignores padding and border",
			style:     map[string]string{"box-sizing": "content-box", "height": "120px", "padding-top": "10px", "border-top-width": "2px"},
			content:   120,
			setHeight: 200,
		},
		{
			name: "border-box subtracts padding and border",
			style: map[string]string{
				"box-sizing": "border-box", "height": "120px",
				"padding-top": "10px", "padding-bottom": "6px",
				"border-top-width": "1px", "border-bottom-width": "3px",
			},
			content:   100,
			setHeight: 220,
		},
		{
			name:      "auto height",
			style:     map[string]string{"height": "auto"},
			content:   0,
			setHeight: 200,
		},
		{
			name:      "never negative",
			style:     map[string]string{"box-sizing": "border-box", "height": "4px", "padding-top": "10px"},
			content:   0,
			setHeight: 210,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := computedBox(styles(tt.style))
			assert.Equal(t, tt.content, b.content())
			assert.Equal(t, tt.setHeight, b.styleHeight(200))
		})
	}
}
