package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	root := &cobra.Command{
		Use:           "newsrag",
		Short:         "Collect, annotate, index and query news articles",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")

	root.AddCommand(
		collectCMD(&cfgPath),
		prepareCMD(&cfgPath),
		indexCMD(&cfgPath),
		askCMD(&cfgPath),
		searchCMD(&cfgPath),
		serveCMD(&cfgPath),
		migrateCMD(&cfgPath),
		runCMD(&cfgPath),
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
