package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mes.GO/config"
	counterRepo "mes.GO/model/repository/counter"
	"mes.GO/model/repository/gormstore"
	"mes.GO/service/allocation"
	"mes.GO/service/numbering"
	productionService "mes.GO/service/production"
)

var (
	startProduct  string
	startStep     string
	startQty      float64
	startNegative bool
	completeQty   float64
	defectQty     float64
)

func productionSvc() (*productionService.Service, error) {
	config.LoadAppConfig()
	db, err := config.NewDB()
	if err != nil {
		return nil, err
	}
	store := gormstore.New(db)
	return productionService.NewService(
		store,
		allocation.NewEngine(store),
		numbering.NewService(config.AppConfig.LotPrefix, counterRepo.NewCounterRepository(db)),
	), nil
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

var productionStartCmd = &cobra.Command{
	Use:   "production:start",
	Short: "Start a production lot and deduct its BOM materials",
	Run: func(cmd *cobra.Command, args []string) {
		svc, err := productionSvc()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			os.Exit(1)
		}
		res, err := svc.Start(context.Background(), productionService.StartInput{
			ProductCode:   startProduct,
			ProcessStep:   startStep,
			PlannedQty:    startQty,
			AllowNegative: startNegative,
		})
		if err != nil {
			fmt.Printf("Start failed: %v\n", err)
			os.Exit(1)
		}
		printJSON(res)
		if !res.Deduction.Success {
			os.Exit(2)
		}
	},
}

var productionCompleteCmd = &cobra.Command{
	Use:   "production:complete [lot-number]",
	Short: "Complete an in-progress production lot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, err := productionSvc()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			os.Exit(1)
		}
		lot, err := svc.Complete(context.Background(), args[0], completeQty, defectQty)
		if err != nil {
			fmt.Printf("Complete failed: %v\n", err)
			os.Exit(1)
		}
		printJSON(lot)
	},
}

var productionCancelCmd = &cobra.Command{
	Use:   "production:cancel [lot-number]",
	Short: "Cancel a lot and return its drawn stock",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, err := productionSvc()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			os.Exit(1)
		}
		lot, restored, err := svc.Cancel(context.Background(), args[0])
		if err != nil {
			fmt.Printf("Cancel failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Restored %d batch draws.\n", restored)
		printJSON(lot)
	},
}

func init() {
	productionStartCmd.Flags().StringVarP(&startProduct, "product", "p", "", "Product code")
	productionStartCmd.Flags().StringVarP(&startStep, "step", "s", "", "Process step (empty = all steps)")
	productionStartCmd.Flags().Float64VarP(&startQty, "qty", "q", 1, "Planned quantity")
	productionStartCmd.Flags().BoolVar(&startNegative, "allow-negative", false, "Allow batches to go negative on shortage")
	productionStartCmd.MarkFlagRequired("product")

	productionCompleteCmd.Flags().Float64VarP(&completeQty, "qty", "q", 0, "Completed quantity")
	productionCompleteCmd.Flags().Float64VarP(&defectQty, "defects", "d", 0, "Defect quantity")

	rootCmd.AddCommand(productionStartCmd, productionCompleteCmd, productionCancelCmd)
}
