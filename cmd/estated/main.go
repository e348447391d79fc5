package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "estated",
		Short: "Estate discovery daemon and CLI",
		Long:  "Estate discovery daemon for running the API server and one-shot listing scans",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.ScanCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
