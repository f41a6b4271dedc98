package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasActiveFilter(t *testing.T) {
	cases := []struct {
		field string
		want  bool
	}{
		{"0", false},
		{"1", false},
		{"2", true},
		{"", false},
		{"not-a-number", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HasActiveFilter(c.field), "field=%q", c.field)
	}
}
