package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		manPage, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err
		}

		manPage = manPage.WithSection("Environment", "ELEVENLABS_API_KEY  API key for speech synthesis\n"+
			"ELEVENLABS_BASE_URL  API root (default https://api.elevenlabs.io/v1)\n"+
			"ANNOUNCE_CONFIG_HOME  directory holding config.json\n"+
			"ANNOUNCE_DEBUG  enable debug logging\n"+
			"ANNOUNCE_LOG_FILE  debug log location")
		fmt.Println(manPage.Build(roff.NewDocument()))
		return nil
	},
}
