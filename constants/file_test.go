package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeExt(t *testing.T) {
	cases := map[string]string{
		".PDF": "pdf",
		".txt": "txt",
		"TXT":  "txt",
		"":     "",
		".":    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeExt(in), "input %q", in)
	}
}

func TestAllowedExtensions(t *testing.T) {
	_, pdf := AllowedExtensions["pdf"]
	_, txt := AllowedExtensions["txt"]
	_, exe := AllowedExtensions["exe"]
	assert.True(t, pdf)
	assert.True(t, txt)
	assert.False(t, exe)
}
