package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"snapshot", "agg", "schema", "crawl", "split", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "zilean", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestInputFlags_Registered(t *testing.T) {
	for _, cmd := range []string{"snapshot", "agg", "split", "serve"} {
		c, _, err := rootCmd.Find([]string{cmd})
		require.NoError(t, err)
		for _, name := range []string{"input", "frames", "no-creep-score", "no-proportion"} {
			assert.NotNil(t, c.Flags().Lookup(name), "%s should have --%s flag", cmd, name)
		}
	}
}

func TestSnapshotCommand_Flags(t *testing.T) {
	for _, name := range []string{"features", "lanes", "subset-frames", "out", "format", "overwrite", "verbose"} {
		assert.NotNil(t, snapshotCmd.Flags().Lookup(name), "snapshot should have --%s flag", name)
	}
	assert.NotNil(t, snapshotCmd.Flags().ShorthandLookup("v"))
}

func TestAggCommand_Flags(t *testing.T) {
	flag := aggCmd.Flags().Lookup("func")
	require.NotNil(t, flag)
	assert.Equal(t, "sum", flag.DefValue)

	require.NotNil(t, aggCmd.Flags().Lookup("type"))
}

func TestSchemaCommand_Flags(t *testing.T) {
	flag := schemaCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "yaml", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestCrawlCommand_Flags(t *testing.T) {
	for _, name := range []string{"count", "region", "tier", "queue", "per-summoner", "cutoff", "output", "compact"} {
		assert.NotNil(t, crawlCmd.Flags().Lookup(name), "crawl should have --%s flag", name)
	}

	names := make(map[string]bool)
	for _, c := range crawlCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["compact"])
}

func TestSplitCommand_Flags(t *testing.T) {
	flag := splitCmd.Flags().Lookup("test-size")
	require.NotNil(t, flag)
	assert.Equal(t, "0.33", flag.DefValue)

	flag = splitCmd.Flags().Lookup("seed")
	require.NotNil(t, flag)
	assert.Equal(t, "42", flag.DefValue)
}
