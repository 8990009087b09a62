// SPDX-License-Identifier: GPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"utracer/cmd/utracer/internal/cliutil"
)

var configInitFlags = &struct {
	Path string
}{}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the utracer config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default $HOME/.utracer.yaml",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().StringVar(&configInitFlags.Path, "path", "", "where to write the config file (default $HOME/.utracer.yaml)")
	configCmd.AddCommand(configInitCmd)
}

// defaultConfig is the shape written by `config init` and read back by
// viper at startup: the same --format/--out defaults every subcommand's
// persistent flags already expose.
type defaultConfig struct {
	Format string `yaml:"format"`
	Out    string `yaml:"out"`
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configInitFlags.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cliutil.NewInputError("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".utracer.yaml")
	}

	data, err := yaml.Marshal(defaultConfig{Format: "text", Out: ""})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cliutil.NewInputError("writing config file: %w", err)
	}

	cmd.Printf("wrote %s\n", path)
	return nil
}
