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
	PersistentPreRunE:     func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		manPage, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err
		}

		manPage = manPage.WithSection("Environment", "ADVTTS_BIN maps engine ids to executables, e.g. coqui=/opt/coqui/bin/tts,piper=/usr/local/bin/piper.\n"+
			"ADVTTS_PYTHON_VENV and ADVTTS_PYENV_ROOT locate Python based engines.\n"+
			"Every config key can be set as ADVTTS_<KEY>, with dots replaced by underscores.")
		fmt.Println(manPage.Build(roff.NewDocument()))
		return nil
	},
}
