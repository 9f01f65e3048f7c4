package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang-consolidation-service/cmd/consolidator/config"
	"golang-consolidation-service/internal/models"
	"golang-consolidation-service/internal/securities"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags shared by the market data commands
var (
	marketFrom    string
	marketTo      string
	marketFormat  string
	cacheDir      string
	disableCache  bool
	clientTimeout time.Duration
)

// Flags for the quotes command
var (
	quoteInterval string
	quoteType     string
)

// quotesCmd represents the quotes command
var quotesCmd = &cobra.Command{
	Use:   "quotes <ticker>",
	Short: "Fetch historical quotes for a security",
	Long: `Quotes fetches the historical price series for a ticker over a date
range. The ticker uses the provider's notation, e.g. TCS.BO for a BSE
listing or TCS.NS for an NSE listing.

Examples:
  # Daily closing prices over a financial year
  consolidator quotes TCS.BO --from 2021-04-01 --to 2022-03-31

  # Weekly opening prices as CSV
  consolidator quotes TCS.BO --from 2021-04-01 --to 2022-03-31 \
    --interval 1wk --quote-type open --output-format csv`,

	Args:    cobra.ExactArgs(1),
	PreRunE: validateMarketFlags,
	RunE:    runQuotes,
}

func init() {
	rootCmd.AddCommand(quotesCmd)

	addMarketFlags(quotesCmd)
	quotesCmd.Flags().StringVar(&quoteInterval, "interval", "1d", "sampling interval: 1d, 5d, 1wk, 1mo, 3mo")
	quotesCmd.Flags().StringVar(&quoteType, "quote-type", "close", "price series: open, close, high, low")
}

// addMarketFlags registers the flags every market data command takes.
func addMarketFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&marketFrom, "from", "", "start date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&marketTo, "to", "", "end date (YYYY-MM-DD, required)")
	cmd.Flags().StringVarP(&marketFormat, "output-format", "f", "csv", "output format: csv, json")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "response cache directory (default: user cache dir)")
	cmd.Flags().BoolVar(&disableCache, "no-cache", false, "disable the response cache")
	cmd.Flags().DurationVar(&clientTimeout, "timeout", 30*time.Second, "request timeout")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
}

// validateMarketFlags validates the shared market data flags.
func validateMarketFlags(cmd *cobra.Command, args []string) error {
	if _, err := models.ParseDate(marketFrom); err != nil {
		return fmt.Errorf("invalid from date. Use YYYY-MM-DD: %w", err)
	}
	if _, err := models.ParseDate(marketTo); err != nil {
		return fmt.Errorf("invalid to date. Use YYYY-MM-DD: %w", err)
	}
	if marketFormat != "csv" && marketFormat != "json" {
		return fmt.Errorf("invalid output format '%s'. Valid formats: csv, json", marketFormat)
	}
	return nil
}

func marketRange() (models.Date, models.Date) {
	from, _ := models.ParseDate(marketFrom)
	to, _ := models.ParseDate(marketTo)
	return from, to
}

func newMarketClient() (*securities.Client, error) {
	clientConfig := config.CreateClientConfig(cacheDir, disableCache, clientTimeout)
	client, err := securities.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create market data client: %w", err)
	}
	return client, nil
}

func runQuotes(cmd *cobra.Command, args []string) error {
	client, err := newMarketClient()
	if err != nil {
		return err
	}

	from, to := marketRange()
	quotes, err := client.HistoricalQuotes(context.Background(), args[0], from, to,
		securities.Interval(quoteInterval), securities.QuoteType(quoteType))
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Fetched %d quotes for %s.\n", len(quotes), args[0])
	}

	if marketFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(quotes)
	}

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"date", quoteType}); err != nil {
		return err
	}
	for _, q := range quotes {
		if err := w.Write([]string{q.Time.Format("2006-01-02"), q.Price.StringFixed(2)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
