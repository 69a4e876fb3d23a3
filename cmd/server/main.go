package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "fedhui",
		Short: "Federated high-utility itemset mining platform",
	}
	root.AddCommand(serveCmd())
	root.AddCommand(mineCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
