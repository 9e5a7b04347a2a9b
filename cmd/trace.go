package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mes.GO/config"
	"mes.GO/model/repository/gormstore"
	traceService "mes.GO/service/trace"
)

var (
	traceDirection string
	traceDepth     int
)

var traceCmd = &cobra.Command{
	Use:   "trace [batch-no | lot-number]",
	Short: "Print the genealogy tree of a batch (forward) or lot (backward)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config.LoadAppConfig()
		db, err := config.NewDB()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			os.Exit(1)
		}
		tracer := traceService.NewTracer(gormstore.New(db))
		depth := traceDepth
		if depth <= 0 {
			depth = config.AppConfig.TraceMaxDepth
		}

		ctx := context.Background()
		switch traceDirection {
		case "forward":
			tree, err := tracer.TraceForward(ctx, args[0], depth)
			if err != nil {
				fmt.Printf("Trace failed: %v\n", err)
				os.Exit(1)
			}
			printTree(tree)
		case "backward":
			tree, err := tracer.TraceBackward(ctx, args[0], depth)
			if err != nil {
				fmt.Printf("Trace failed: %v\n", err)
				os.Exit(1)
			}
			printTree(tree)
		default:
			res, err := tracer.TraceBoth(ctx, args[0], depth)
			if err != nil {
				fmt.Printf("Trace failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("--- forward ---")
			printTree(res.Forward)
			fmt.Println("--- backward ---")
			printTree(res.Backward)
		}
	},
}

func printTree(tree *traceService.Tree) {
	for _, n := range traceService.Flatten(tree) {
		indent := strings.Repeat("  ", n.Depth)
		line := fmt.Sprintf("%s%s %s", indent, n.Kind, n.Label)
		if n.Qty != 0 {
			line += fmt.Sprintf(" (%.4g)", n.Qty)
		}
		if n.Detail != "" {
			line += " [" + n.Detail + "]"
		}
		fmt.Println(line)
	}
	fmt.Printf("%d nodes, max depth %d\n", tree.NodeCount, tree.MaxDepth)
}

func init() {
	traceCmd.Flags().StringVarP(&traceDirection, "direction", "d", "both", "forward, backward or both")
	traceCmd.Flags().IntVar(&traceDepth, "depth", 0, "Max traversal depth (0 = configured default)")
	rootCmd.AddCommand(traceCmd)
}
