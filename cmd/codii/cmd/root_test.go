package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdRegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"index", "search", "status", "clear", "serve", "version"} {
		_, _, err := root.Find([]string{name})
		require.NoError(t, err, "expected %s subcommand to be registered", name)
	}
}

func TestRootCmdUse(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "codii", root.Use)
}
