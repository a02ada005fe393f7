package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvidoni/sociograph"
	"github.com/mvidoni/sociograph/export"
	"github.com/mvidoni/sociograph/triplet"
)

var (
	extractURL      string
	extractModel    string
	extractGuidance string
	extractMax      int
	extractOut      string
	extractFormat   string
	extractStream   bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract triplets from a file, URL or stdin",
	Long: `Extract runs the full pipeline over a document, a web page or stdin.

Examples:
  sociograph extract report.pdf
  sociograph extract --url https://example.org/news/launch
  cat notes.txt | sociograph extract -
  sociograph extract report.docx --out triplets.xlsx
  sociograph extract report.txt --stream --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractURL, "url", "", "extract from a web page instead of a file")
	extractCmd.Flags().StringVar(&extractModel, "model", "", "override the configured chat model")
	extractCmd.Flags().StringVar(&extractGuidance, "guidance", "", "extra instructions for the extraction prompt")
	extractCmd.Flags().IntVar(&extractMax, "max", 0, "maximum triplets to extract (0 = unlimited)")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "write triplets to a file (.xlsx or .csv)")
	extractCmd.Flags().StringVar(&extractFormat, "format", "table", "stdout format (json, table)")
	extractCmd.Flags().BoolVar(&extractStream, "stream", false, "print triplets as NDJSON while they arrive")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractURL == "" && len(args) == 0 {
		return fmt.Errorf("provide a file argument, '-' for stdin, or --url")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := sociograph.New(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []sociograph.ExtractOption
	if extractModel != "" {
		opts = append(opts, sociograph.WithModel(extractModel))
	}
	if extractGuidance != "" {
		opts = append(opts, sociograph.WithGuidance(extractGuidance))
	}
	if extractMax > 0 {
		opts = append(opts, sociograph.WithMaxTriplets(extractMax))
	}

	ctx := context.Background()

	if extractStream {
		text, err := inputText(ctx, engine, args)
		if err != nil {
			return err
		}
		return streamTriplets(ctx, engine, text, opts)
	}

	var result *sociograph.Result
	switch {
	case extractURL != "":
		result, err = engine.ExtractURL(ctx, extractURL, opts...)
	case args[0] == "-":
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			return fmt.Errorf("reading stdin: %w", readErr)
		}
		result, err = engine.Extract(ctx, string(data), opts...)
	default:
		result, err = engine.ExtractFile(ctx, args[0], opts...)
	}
	if err != nil {
		return err
	}

	if extractOut != "" {
		if err := writeOutput(extractOut, result.Triplets); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d triplets to %s\n", len(result.Triplets), extractOut)
		return nil
	}
	return printResult(result)
}

// inputText resolves the text for streaming mode, where the engine's
// file/URL entry points cannot be used directly.
func inputText(ctx context.Context, engine sociograph.Extractor, args []string) (string, error) {
	if extractURL != "" {
		page, err := engine.Scrape(ctx, extractURL)
		if err != nil {
			return "", err
		}
		return page.Text, nil
	}
	if args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

func streamTriplets(ctx context.Context, engine sociograph.Extractor, text string, opts []sociograph.ExtractOption) error {
	items, err := engine.ExtractStream(ctx, text, opts...)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for item := range items {
		if item.Err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", item.Err)
			continue
		}
		if err := enc.Encode(item.Triplet); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(path string, triplets []triplet.Validated) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.WriteXLSX(path, triplets)
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return export.WriteCSV(f, triplets)
	default:
		return fmt.Errorf("unsupported output format %q (use .xlsx or .csv)", filepath.Ext(path))
	}
}

func printResult(result *sociograph.Result) error {
	switch extractFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CHUNK\tROLE\tPRACTICE\tCOUNTERROLE")
		for _, t := range result.Triplets {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ChunkID, t.Role, t.Practice, t.Counterrole)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d triplets from %d chunks (model %s)\n",
			len(result.Triplets), result.Chunks, result.ModelUsed)
		return nil
	default:
		return fmt.Errorf("unknown format %q", extractFormat)
	}
}
