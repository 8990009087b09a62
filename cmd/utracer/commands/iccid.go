// SPDX-License-Identifier: GPL-3.0-or-later

package commands

import (
	"context"

	"github.com/spf13/cobra"

	"utracer/cmd/utracer/internal/cliutil"
	"utracer/cmd/utracer/internal/output"

	trace "utracer"
)

var iccidCmd = &cobra.Command{
	Use:   "iccid <file>",
	Short: "Decode the ICCID from a SELECT EF_ICCID / READ BINARY pair",
	Args:  cobra.ExactArgs(1),
	RunE:  runIccid,
}

func runIccid(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(Flags.Format)
	if err != nil {
		return cliutil.NewInputError("%w", err)
	}

	cfg := trace.NewAnalysisConfig()
	model, err := cliutil.LoadModel(context.Background(), cfg, args[0])
	if err != nil {
		return err
	}

	iccid := trace.DecodeIccid(model)

	w, closeFn, err := cliutil.OpenOutput(Flags.Out)
	if err != nil {
		return err
	}
	defer closeFn()

	t := output.NewRows("ICCID")
	if iccid != "" {
		t.Add(iccid)
	}
	return output.Write(w, format, map[string]string{"iccid": iccid}, t)
}
