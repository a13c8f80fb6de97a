package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInstallArg(t *testing.T) {
	cases := []struct {
		arg         string
		wantName    string
		wantRange   string
	}{
		{"left-pad", "left-pad", "latest"},
		{"left-pad@^1.2", "left-pad", "^1.2"},
		{"@scope/pkg", "@scope/pkg", "latest"},
		{"@scope/pkg@1.0.0", "@scope/pkg", "1.0.0"},
	}
	for _, c := range cases {
		name, rangeSpec := ParseInstallArg(c.arg)
		assert.Equal(t, c.wantName, name, c.arg)
		assert.Equal(t, c.wantRange, rangeSpec, c.arg)
	}
}
