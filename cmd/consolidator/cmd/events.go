package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"golang-consolidation-service/internal/securities"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the events command
var eventType string

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events <scrip-code>",
	Short: "Fetch corporate events for a BSE scrip code",
	Long: `Events fetches the corporate actions announced for a BSE scrip code
over a date range and classifies each by purpose: dividends with the
per-share amount, bonus issues and stock splits with the holding
adjustment ratio, and everything else as other.

Use 'consolidator scrips <symbol>' to resolve a symbol to its scrip code.

Examples:
  consolidator events 532540 --from 2021-04-01 --to 2022-03-31
  consolidator events 532540 --from 2021-04-01 --to 2022-03-31 --type dividend`,

	Args:    cobra.ExactArgs(1),
	PreRunE: validateEventsFlags,
	RunE:    runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	addMarketFlags(eventsCmd)
	eventsCmd.Flags().StringVar(&eventType, "type", "", "only report one event type: dividend, bonus, split, other")
}

func validateEventsFlags(cmd *cobra.Command, args []string) error {
	if err := validateMarketFlags(cmd, args); err != nil {
		return err
	}
	if eventType != "" && !securities.EventType(eventType).IsValid() {
		return fmt.Errorf("invalid event type '%s'. Valid types: dividend, bonus, split, other", eventType)
	}
	return nil
}

func runEvents(cmd *cobra.Command, args []string) error {
	client, err := newMarketClient()
	if err != nil {
		return err
	}

	from, to := marketRange()
	events, err := client.CorporateEvents(context.Background(), args[0], from, to)
	if err != nil {
		return err
	}
	if eventType != "" {
		events = securities.FilterEvents(events, securities.EventType(eventType))
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Fetched %d events for scrip %s.\n", len(events), args[0])
	}

	if marketFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(events)
	}

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"ex_date", "security", "type", "value", "purpose"}); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{e.ExDate.String(), e.Security, string(e.Type), e.Value.String(), e.Purpose}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
