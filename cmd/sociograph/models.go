package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvidoni/sociograph"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the configured models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := sociograph.New(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE")
		for _, m := range engine.Models() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.Type)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
