package cmd

import (
	"testing"

	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/parsers"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractOptions(t *testing.T) {
	opts, err := extractOptions("horizontal", "q")
	require.NoError(t, err)
	assert.Equal(t, parsers.Options{Orientation: table.Horizontal, XUnit: parsers.XUnitQ}, opts)

	opts, err = extractOptions("auto", "auto")
	require.NoError(t, err)
	assert.Equal(t, parsers.Options{}, opts)

	_, err = extractOptions("sideways", "auto")
	assert.Error(t, err)

	_, err = extractOptions("auto", "d")
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"parse", "build", "standardize", "formats", "runs"} {
		assert.True(t, names[want], want)
	}

	flag := buildCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "stringSlice", flag.Value.Type())
}
