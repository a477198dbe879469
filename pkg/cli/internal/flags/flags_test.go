package flags

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader_Repeatable(t *testing.T) {
	var headers Header
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.VarP(&headers, "header", "H", "headers")

	require.NoError(t, fs.Parse([]string{"-H", "Accept: a, b", "--header", "X-Id:1"}))
	assert.Equal(t, []string{"Accept: a, b", "X-Id:1"}, headers.Values())
	assert.Equal(t, "[Accept: a, b; X-Id:1]", headers.String())
	assert.Equal(t, "key:value", headers.Type())
}

func TestHeader_RejectsMalformed(t *testing.T) {
	tests := []string{"broken", ":value", "  : x"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			var headers Header
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			fs.SetOutput(discard{})
			fs.VarP(&headers, "header", "H", "headers")

			err := fs.Parse([]string{"-H", raw})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "expected key:value")
			assert.Empty(t, headers.Values())
		})
	}
}

func TestHeader_EmptyString(t *testing.T) {
	var headers Header
	assert.Equal(t, "", headers.String())
	assert.Nil(t, headers.Values())
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
