package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	assert.Equal(t, "discimg", root.Use)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["enrich"], "enrich subcommand must be registered")
	assert.True(t, names["load"], "load subcommand must be registered")
}

func TestLoadCommandRequiresCSVArgument(t *testing.T) {
	load := newLoadCmd()
	require.NotNil(t, load.Args)
	assert.Error(t, load.Args(load, nil))
	assert.NoError(t, load.Args(load, []string{"discs.csv"}))
}
