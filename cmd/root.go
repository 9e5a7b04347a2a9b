package cmd

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mes",
	Short: "Factory execution tracker: stock ledger, lot genealogy, BOM deduction",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if os.Getenv("NO_BANNER") != "" {
			return
		}
		fonts := []string{"banner", "big", "slant", "standard", "small", "shadow", "doom", "rectangles"}
		figure.NewFigure("MES ->", fonts[rand.Intn(len(fonts))], true).Print()
	},
}

// Execute runs the CLI. Extension commands registered via Register are
// attached first.
func Execute() {
	Apply()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
