package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ridgeline-retail/fedhui/internal/mining"
)

// mineCmd runs the mining engine standalone against a CSV snapshot,
// the Go equivalent of running debug_hui.py directly against a fixed
// transaction set.
func mineCmd() *cobra.Command {
	var minUtility float64
	var minSupport int
	var usePruning bool

	cmd := &cobra.Command{
		Use:   "mine <transactions.csv>",
		Short: "Mine high-utility itemsets from a CSV transaction snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txns, err := loadTransactionCSV(args[0])
			if err != nil {
				return err
			}

			results, stats, err := mining.Mine(context.Background(), txns, mining.Options{
				MinUtility: minUtility,
				MinSupport: minSupport,
				PruningOn:  usePruning,
			})
			if err != nil {
				return fmt.Errorf("mine: %w", err)
			}

			fmt.Printf("%d transactions, %d high-utility itemsets found (nodes=%d projections=%d utility_pruned=%d support_pruned=%d)\n",
				len(txns), len(results), stats.NodesCreated, stats.ProjectionsBuilt, stats.UtilityPruned, stats.SupportPruned)
			for _, r := range results {
				fmt.Printf("  items=%v utility=%.4f support=%d\n", r.Items, r.Utility, r.Support)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&minUtility, "min-utility", 1.0, "minimum itemset utility to report")
	cmd.Flags().IntVar(&minSupport, "min-support", 0, "minimum itemset support to report (0 disables)")
	cmd.Flags().BoolVar(&usePruning, "use-pruning", true, "enable TWU-based pruning")

	return cmd
}

// loadTransactionCSV reads "item,qty,unit_utility" rows, one
// transaction per blank-line-separated block.
func loadTransactionCSV(path string) ([]mining.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var txns []mining.Transaction
	var current mining.Transaction

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if len(current.Items) > 0 {
				txns = append(txns, current)
				current = mining.Transaction{}
			}
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected item,qty,unit_utility, got %q", lineNo, line)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid item id: %w", lineNo, err)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid quantity: %w", lineNo, err)
		}
		unitUtility, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid unit utility: %w", lineNo, err)
		}
		current.Items = append(current.Items, mining.Item{ID: id, Quantity: qty, UnitUtility: unitUtility})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(current.Items) > 0 {
		txns = append(txns, current)
	}
	return txns, nil
}
