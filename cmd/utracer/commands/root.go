// SPDX-License-Identifier: GPL-3.0-or-later

// Package commands implements the utracer CLI's subcommand tree.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags holds the persistent --format/--out values every subcommand reads.
var Flags = &struct {
	Format string
	Out    string
}{}

var cfgFile string

// Root is the top-level utracer command.
var Root = &cobra.Command{
	Use:   "utracer",
	Short: "Analyze Universal-Tracer SIM/eUICC trace captures",
	Long: `utracer parses a Universal-Tracer XML trace, reconstructs BIP channel
sessions and FETCH/TERMINAL-RESPONSE pairs, validates it against the
expected SIM/eUICC protocol lifecycle, and renders the result as a flow
timeline, a stats summary, or a scenario conformance verdict.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	Root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.utracer.yaml)")
	Root.PersistentFlags().StringVar(&Flags.Format, "format", "text", "output format: text|json")
	Root.PersistentFlags().StringVar(&Flags.Out, "out", "", "write output to file instead of stdout")

	Root.AddCommand(flowOverviewCmd)
	Root.AddCommand(flowSessionsCmd)
	Root.AddCommand(flowEventsCmd)
	Root.AddCommand(parsingLogCmd)
	Root.AddCommand(iccidCmd)
	Root.AddCommand(statsCmd)
	Root.AddCommand(scenarioCmd)
	Root.AddCommand(configCmd)
}

// initConfig wires viper to an optional config file for the flags this
// CLI exposes, letting `format`/`out` defaults live in
// $HOME/.utracer.yaml instead of being repeated on every invocation.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".utracer")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("UTRACER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if !Root.PersistentFlags().Changed("format") && viper.IsSet("format") {
			Flags.Format = viper.GetString("format")
		}
		if !Root.PersistentFlags().Changed("out") && viper.IsSet("out") {
			Flags.Out = viper.GetString("out")
		}
	}
}
