package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvidoni/sociograph/catalog"
)

var (
	catalogPath     string
	catalogCategory string
)

// catalogCmd represents the catalog command group
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and edit the actor catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all actors by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, category := range cat.Categories() {
			for _, actor := range cat.Actors(category) {
				fmt.Fprintf(w, "%s\t%s\n", category, actor)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d actors in %d categories\n", cat.Len(), len(cat.Categories()))
		return nil
	},
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search actors by case-insensitive substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog()
		if err != nil {
			return err
		}
		for _, actor := range cat.Search(args[0]) {
			fmt.Println(actor)
		}
		return nil
	},
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <actor>",
	Short: "Add an actor to a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if catalogCategory == "" {
			return fmt.Errorf("--category is required")
		}
		cat, err := openCatalog()
		if err != nil {
			return err
		}
		if !cat.Add(args[0], catalogCategory) {
			fmt.Printf("%q already in catalog\n", args[0])
			return nil
		}
		return saveCatalogFile(cat)
	},
}

var catalogRemoveCmd = &cobra.Command{
	Use:   "remove <actor>",
	Short: "Remove an actor from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog()
		if err != nil {
			return err
		}
		if !cat.Remove(args[0]) {
			return fmt.Errorf("%q not in catalog", args[0])
		}
		return saveCatalogFile(cat)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogSearchCmd, catalogAddCmd, catalogRemoveCmd)

	catalogCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "actor catalog JSON file (default: embedded catalog)")
	catalogAddCmd.Flags().StringVar(&catalogCategory, "category", "", "category for the new actor")
}

func openCatalog() (*catalog.Catalog, error) {
	if catalogPath == "" {
		if cfg, err := loadConfig(); err == nil && cfg.CatalogPath != "" {
			catalogPath = cfg.CatalogPath
		}
	}
	if catalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(catalogPath)
}

func saveCatalogFile(cat *catalog.Catalog) error {
	if catalogPath == "" {
		return fmt.Errorf("mutating the embedded catalog requires --catalog pointing at a file")
	}
	return cat.Save(catalogPath)
}
