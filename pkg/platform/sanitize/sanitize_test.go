package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Floor 3, east wing", "Floor 3, east wing"},
		{"trims whitespace", "  hello \n", "hello"},
		{"strips script tags", "<script>alert(1)</script>hi", "alert(1)hi"},
		{"strips attributes", `<img src=x onerror="boom">caption`, "caption"},
		{"only tags becomes empty", "<b></b>", ""},
		{"keeps comparison operators", "score 3 > 2", "score 3 > 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestOptional(t *testing.T) {
	assert.Nil(t, Optional(nil))

	empty := "  <i></i> "
	assert.Nil(t, Optional(&empty))

	dept := " <b>Finance</b> "
	got := Optional(&dept)
	if assert.NotNil(t, got) {
		assert.Equal(t, "Finance", *got)
	}
}
