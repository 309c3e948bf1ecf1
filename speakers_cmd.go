package main

import (
	"fmt"

	"github.com/dgnsrekt/announce/internal/announce"
	"github.com/dgnsrekt/announce/internal/proc"
	"github.com/spf13/cobra"
)

var (
	speakersJSON bool

	speakersCmd = &cobra.Command{
		Use:   "speakers",
		Short: "List the speakers Airfoil knows",
		Long: paragraph(fmt.Sprintf("\n%s every speaker Airfoil knows, with its connection state and whether it is configured or excluded.",
			keyword("List"))),
		Example: paragraph("announce speakers\nannounce speakers --json"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a := announce.New(cfg, nil, proc.NewSubprocessManager(0))
			speakers, err := a.Speakers(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not query Airfoil, is it running? %w", err)
			}

			if speakersJSON {
				return announce.WriteSpeakersJSON(cmd.OutOrStdout(), speakers)
			}
			return announce.WriteSpeakers(cmd.OutOrStdout(), speakers)
		},
	}
)

func init() {
	speakersCmd.Flags().BoolVar(&speakersJSON, "json", false, "print JSON")
}
