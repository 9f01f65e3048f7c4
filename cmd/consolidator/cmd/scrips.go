package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang-consolidation-service/internal/securities"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the scrips command
var (
	scripSegment string
	scripStatus  string
)

// scripsCmd represents the scrips command
var scripsCmd = &cobra.Command{
	Use:   "scrips [symbol...]",
	Short: "List BSE scrips or resolve symbols to their scrip codes",
	Long: `Scrips lists the securities in a BSE segment, or with symbol
arguments resolves each symbol to its numeric scrip code. Symbol matching
is case-insensitive; symbols the segment does not list resolve to an
empty code with a warning.

Examples:
  # Resolve symbols
  consolidator scrips RELIANCE TCS INFY

  # List every active equity scrip
  consolidator scrips

  # List delisted scrips in another segment
  consolidator scrips --segment "Exchange Traded Funds" --status Delisted`,

	RunE: runScrips,
}

func init() {
	rootCmd.AddCommand(scripsCmd)

	scripsCmd.Flags().StringVar(&scripSegment, "segment", "Equity T+1",
		fmt.Sprintf("exchange segment: %s", strings.Join(securities.Segments(), ", ")))
	scripsCmd.Flags().StringVar(&scripStatus, "status", "Active", "listing status: Active, Suspended, Delisted")
	scripsCmd.Flags().StringVarP(&marketFormat, "output-format", "f", "csv", "output format: csv, json")
	scripsCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "response cache directory (default: user cache dir)")
	scripsCmd.Flags().BoolVar(&disableCache, "no-cache", false, "disable the response cache")
	scripsCmd.Flags().DurationVar(&clientTimeout, "timeout", 30*time.Second, "request timeout")
}

func runScrips(cmd *cobra.Command, args []string) error {
	client, err := newMarketClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if len(args) > 0 {
		codes, err := client.ScripCodes(ctx, args, scripSegment, scripStatus)
		if err != nil {
			return err
		}
		return writeScripCodes(os.Stdout, args, codes, marketFormat)
	}

	return listScrips(ctx, client)
}

// writeScripCodes renders resolved scrip codes in the symbols' given order.
func writeScripCodes(out io.Writer, symbols []string, codes map[string]string, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(codes)
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"symbol", "code"}); err != nil {
		return err
	}
	for _, symbol := range symbols {
		if err := w.Write([]string{symbol, codes[symbol]}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func listScrips(ctx context.Context, client *securities.Client) error {
	scrips, err := client.ListScrips(ctx, scripSegment, scripStatus)
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Fetched %d scrips.\n", len(scrips))
	}

	if marketFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(scrips)
	}

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"code", "symbol", "name", "group", "status"}); err != nil {
		return err
	}
	for _, s := range scrips {
		if err := w.Write([]string{s.Code, s.Symbol, s.Name, s.Group, s.Status}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
