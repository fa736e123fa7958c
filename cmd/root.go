package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "pagetrail",
		Short: "Semantically searchable personal browsing timeline",
	}

	root.AddCommand(serveCMD(), migrateCMD(), ingestCMD(), queryCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
