package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetVersionInfo(t *testing.T) {
	origVersion := versionInfo.Version
	origCommit := versionInfo.Commit
	origBuildDate := versionInfo.BuildDate
	defer func() {
		versionInfo.Version = origVersion
		versionInfo.Commit = origCommit
		versionInfo.BuildDate = origBuildDate
	}()

	SetVersionInfo("1.0.0", "abc123", "2026-01-15")

	assert.Equal(t, "1.0.0", versionInfo.Version)
	assert.Equal(t, "abc123", versionInfo.Commit)
	assert.Equal(t, "2026-01-15", versionInfo.BuildDate)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["crawl"])
	assert.True(t, names["status"])
	assert.True(t, names["serve"])
}

func TestCrawlRequiresManifest(t *testing.T) {
	flag := crawlCmd.Flags().Lookup("manifest")
	assert.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}
