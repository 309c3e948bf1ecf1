package main

import (
	"fmt"

	"github.com/dgnsrekt/announce/internal/airfoil"
	"github.com/dgnsrekt/announce/internal/doctor"
	"github.com/dgnsrekt/announce/internal/proc"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Short:   "Check that everything an announcement needs is available",
	Long:    paragraph(fmt.Sprintf("\n%s for osascript, afplay, ffmpeg, a running Airfoil and TTS credentials.", keyword("Check"))),
	Example: paragraph("announce doctor"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		runner := proc.NewSubprocessManager(0)
		client := airfoil.NewClient(runner, cfg.Airfoil.Source)
		report := doctor.Run(cmd.Context(), doctor.Default(runner, client, env.APIKey, cfg.ScriptPath())...)

		fmt.Fprint(cmd.OutOrStdout(), report.Render())
		return report.Err()
	},
}
