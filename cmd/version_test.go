package cmd

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubBuildInfo(t *testing.T, info *debug.BuildInfo, ok bool) {
	t.Helper()

	original := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, ok }

	t.Cleanup(func() { readBuildInfo = original })
}

func runVersion(t *testing.T) string {
	t.Helper()

	cmd := newVersionCmd()

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	return out.String()
}

func TestVersionCmd_ColouredVersion(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = false

	t.Cleanup(func() { color.NoColor = noColor })

	stubBuildInfo(t, &debug.BuildInfo{GoVersion: "go1.24.2", Main: debug.Module{Version: "v0.3.1"}}, true)

	output := runVersion(t)

	assert.Equal(t, "tool version\t "+versionColor.Sprint("v0.3.1")+"\ngo version\t go1.24.2\n", output)
	assert.Contains(t, output, "\x1b[33;1mv0.3.1\x1b[")
}

func TestVersionCmd_PlainWhenColourDisabled(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true

	t.Cleanup(func() { color.NoColor = noColor })

	stubBuildInfo(t, &debug.BuildInfo{GoVersion: "go1.24.2", Main: debug.Module{Version: "v0.3.1"}}, true)

	assert.Contains(t, runVersion(t), "tool version\t v0.3.1\n")
}

func TestVersionCmd_Unknown(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{}, true)
	assert.Equal(t, "version: unknown\n", runVersion(t))

	stubBuildInfo(t, nil, false)
	assert.Equal(t, "version: unknown\n", runVersion(t))
}
