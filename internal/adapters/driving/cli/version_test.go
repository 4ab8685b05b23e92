package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	for _, v := range []string{"dev", "v1.4.0"} {
		t.Run(v, func(t *testing.T) {
			saved := version
			version = v
			t.Cleanup(func() { version = saved })

			out, _, err := execute(t, "", "version")

			require.NoError(t, err)
			assert.Equal(t, "ragchat "+v+" ("+runtime.Version()+", "+runtime.GOOS+"/"+runtime.GOARCH+")\n", out)
		})
	}
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	_, _, err := execute(t, "", "version", "extra")

	assert.Error(t, err)
}
