package securities

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"golang-consolidation-service/internal/models"
	apperrors "golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"
)

// Interval is a quote sampling interval accepted by the chart endpoint.
type Interval string

const (
	IntervalDaily     Interval = "1d"
	IntervalFiveDay   Interval = "5d"
	IntervalWeekly    Interval = "1wk"
	IntervalMonthly   Interval = "1mo"
	IntervalQuarterly Interval = "3mo"
)

var validIntervals = map[Interval]bool{
	IntervalDaily:     true,
	IntervalFiveDay:   true,
	IntervalWeekly:    true,
	IntervalMonthly:   true,
	IntervalQuarterly: true,
}

// IsValid reports whether the interval is accepted by the provider.
func (i Interval) IsValid() bool { return validIntervals[i] }

// QuoteType selects which price series of a candle to return.
type QuoteType string

const (
	QuoteOpen  QuoteType = "open"
	QuoteClose QuoteType = "close"
	QuoteHigh  QuoteType = "high"
	QuoteLow   QuoteType = "low"
)

var validQuoteTypes = map[QuoteType]bool{
	QuoteOpen:  true,
	QuoteClose: true,
	QuoteHigh:  true,
	QuoteLow:   true,
}

// IsValid reports whether the quote type names a known price series.
func (q QuoteType) IsValid() bool { return validQuoteTypes[q] }

// Quote is a single priced point in a historical series.
type Quote struct {
	Time  time.Time       `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// HistoricalQuotes fetches the price series for ticker between from and to
// inclusive. An empty quoteType means the closing price. Points the provider
// reports without a price are skipped.
func (c *Client) HistoricalQuotes(ctx context.Context, ticker string, from, to models.Date, interval Interval, quoteType QuoteType) ([]Quote, error) {
	if ticker == "" {
		return nil, apperrors.ValidationError(apperrors.CodeMissingField, "ticker", ticker, nil)
	}
	if interval == "" {
		interval = IntervalDaily
	}
	if !interval.IsValid() {
		return nil, apperrors.ValidationError(apperrors.CodeInvalidRecord, "interval", string(interval), nil).
			WithSuggestion("use one of 1d, 5d, 1wk, 1mo, 3mo")
	}
	if quoteType == "" {
		quoteType = QuoteClose
	}
	if !quoteType.IsValid() {
		return nil, apperrors.ValidationError(apperrors.CodeInvalidRecord, "quote_type", string(quoteType), nil).
			WithSuggestion("use one of open, close, high, low")
	}
	if to.Before(from) {
		return nil, apperrors.ValidationError(apperrors.CodeInvalidDate, "range",
			fmt.Sprintf("%s..%s", from, to), nil).
			WithSuggestion("the end date must not precede the start date")
	}

	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", from.Time().Unix()))
	q.Set("period2", fmt.Sprintf("%d", to.Time().AddDate(0, 0, 1).Unix()))
	q.Set("interval", string(interval))
	q.Set("events", "history")
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.config.YahooBaseURL, url.PathEscape(ticker), q.Encode())

	c.logger.WithFields(logger.Fields{
		"ticker":   ticker,
		"interval": string(interval),
		"from":     from.String(),
		"to":       to.String(),
	}).Debug("Fetching historical quotes")

	var payload interface{}
	if err := c.getJSON(ctx, addr, &payload); err != nil {
		return nil, err
	}

	timestamps, err := jsonpath.Get("$.chart.result[0].timestamp", payload)
	if err != nil {
		return nil, apperrors.NetworkError(apperrors.CodeBadResponse, addr, err).
			WithContext("ticker", ticker)
	}
	prices, err := jsonpath.Get(fmt.Sprintf("$.chart.result[0].indicators.quote[0].%s", quoteType), payload)
	if err != nil {
		return nil, apperrors.NetworkError(apperrors.CodeBadResponse, addr, err).
			WithContext("ticker", ticker)
	}

	tsList, ok := timestamps.([]interface{})
	if !ok {
		return nil, apperrors.NetworkError(apperrors.CodeBadResponse, addr,
			fmt.Errorf("unexpected timestamp payload %T", timestamps))
	}
	priceList, ok := prices.([]interface{})
	if !ok {
		return nil, apperrors.NetworkError(apperrors.CodeBadResponse, addr,
			fmt.Errorf("unexpected price payload %T", prices))
	}
	if len(tsList) != len(priceList) {
		return nil, apperrors.NetworkError(apperrors.CodeBadResponse, addr,
			fmt.Errorf("timestamp and price series lengths differ: %d vs %d", len(tsList), len(priceList)))
	}

	quotes := make([]Quote, 0, len(tsList))
	for i, rawTS := range tsList {
		ts, ok := rawTS.(float64)
		if !ok {
			continue
		}
		price, ok := priceList[i].(float64)
		if !ok {
			// null points appear on non-trading days
			continue
		}
		quotes = append(quotes, Quote{
			Time:  time.Unix(int64(ts), 0).UTC(),
			Price: decimal.NewFromFloat(price).RoundBank(2),
		})
	}

	c.logger.WithField("points", len(quotes)).Debug("Fetched historical quotes")
	return quotes, nil
}
