// SPDX-License-Identifier: GPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRunConfigInitWritesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".utracer.yaml")
	configInitFlags.Path = path
	defer func() { configInitFlags.Path = "" }()

	require.NoError(t, runConfigInit(configInitCmd, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg defaultConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "", cfg.Out)
}
