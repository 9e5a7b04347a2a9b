package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mes.GO/config"
	"mes.GO/service/receiving"
)

var (
	receiptsFile  string
	receiptsBatch int
)

var receiptsImportCmd = &cobra.Command{
	Use:   "receipts:import",
	Short: "Import material batch receipts from CSV into the stock ledger",
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(receiptsFile)
		if err != nil {
			fmt.Printf("Failed to open CSV: %v\n", err)
			return
		}
		defer f.Close()

		items, warnings, err := parseReceiptsCSV(f)
		if err != nil {
			fmt.Printf("CSV parse failed: %v\n", err)
			return
		}
		for _, w := range warnings {
			fmt.Printf("  [warn] %s\n", w)
		}

		db, err := config.NewDB()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			return
		}

		res, err := receiving.ImportReceiptsJSON(db, items, receiptsBatch)
		if err != nil {
			fmt.Printf("Import failed: %v\n", err)
			return
		}
		for _, w := range res.Warnings {
			fmt.Printf("  [warn] %s\n", w)
		}
		fmt.Printf(`
=== Receipt Import Report ===
CSV rows:  %d
Imported:  %d
Skipped:   %d
`, len(items), res.Imported, res.Skipped)
	},
}

// parseReceiptsCSV reads material_code,batch_no,qty[,location[,received_at]]
// rows. A header row is detected by a non-numeric qty column and skipped.
func parseReceiptsCSV(r io.Reader) ([]receiving.ReceiptInput, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var items []receiving.ReceiptInput
	var warnings []string
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, warnings, err
		}
		line++
		if len(record) < 3 {
			warnings = append(warnings, fmt.Sprintf("line %d: expected at least 3 columns", line))
			continue
		}
		qty, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			warnings = append(warnings, fmt.Sprintf("line %d: bad qty %q", line, record[2]))
			continue
		}
		item := receiving.ReceiptInput{
			MaterialCode: record[0],
			BatchNo:      record[1],
			Qty:          qty,
		}
		if len(record) > 3 {
			item.Location = record[3]
		}
		if len(record) > 4 && record[4] != "" {
			ts, err := time.Parse(time.RFC3339, record[4])
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("line %d: bad received_at %q", line, record[4]))
			} else {
				item.ReceivedAt = &ts
			}
		}
		items = append(items, item)
	}
	return items, warnings, nil
}

func init() {
	receiptsImportCmd.Flags().StringVarP(&receiptsFile, "file", "f", "receipts.csv", "CSV file to import")
	receiptsImportCmd.Flags().IntVarP(&receiptsBatch, "batch", "b", 500, "Insert batch size")
	rootCmd.AddCommand(receiptsImportCmd)
}
