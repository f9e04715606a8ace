package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/workload"
)

func init() {
	rootCmd.AddCommand(newListCmd())
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available workloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList()
		},
	}
}

type workloadRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func runList() error {
	ws := workload.All()

	if jsonOut {
		rows := make([]workloadRow, len(ws))
		for i, w := range ws {
			rows[i] = workloadRow{w.Name, w.Description}
		}
		return printJSON(rows)
	}
	if quiet {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Workload", "Description"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	for _, w := range ws {
		table.Append([]string{w.Name, w.Description})
	}
	table.Render()
	return nil
}
