package securities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	apperrors "golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"
)

// segmentCodes maps the exchange segment names used on the BSE website to
// the codes its API expects.
var segmentCodes = map[string]string{
	"Equity T+1":               "Equity",
	"Equity T+0":               "EQT0",
	"Derivatives":              "DER",
	"Exchange Traded Funds":    "MF",
	"Debt or Others":           "DB",
	"Currency Derivatives":     "CR",
	"Commodity":                "CO",
	"Electronic Gold Receipts": "EGR",
	"Hybrid Security":          "HS",
	"Municipal Bonds":          "MB",
	"Social Stock Exchange":    "SSE",
}

var validStatuses = map[string]bool{
	"Active":    true,
	"Suspended": true,
	"Delisted":  true,
}

// Segments lists the supported exchange segment names.
func Segments() []string {
	names := make([]string, 0, len(segmentCodes))
	for name := range segmentCodes {
		names = append(names, name)
	}
	return names
}

// Scrip is one listed security in a BSE segment.
type Scrip struct {
	Code   string `json:"SCRIP_CD"`
	Symbol string `json:"scrip_id"`
	Name   string `json:"Scrip_Name"`
	Group  string `json:"GROUP"`
	Status string `json:"Status"`
}

// ListScrips fetches the securities listed in a BSE segment with the given
// status. Segment defaults to "Equity T+1" and status to "Active".
func (c *Client) ListScrips(ctx context.Context, segment, status string) ([]Scrip, error) {
	if segment == "" {
		segment = "Equity T+1"
	}
	segmentCode, ok := segmentCodes[segment]
	if !ok {
		return nil, apperrors.ValidationError(apperrors.CodeInvalidRecord, "segment", segment, nil).
			WithSuggestion(fmt.Sprintf("use one of: %s", strings.Join(Segments(), ", ")))
	}
	if status == "" {
		status = "Active"
	}
	if !validStatuses[status] {
		return nil, apperrors.ValidationError(apperrors.CodeInvalidRecord, "status", status, nil).
			WithSuggestion("use one of: Active, Suspended, Delisted")
	}

	q := url.Values{}
	q.Set("Group", "")
	q.Set("Scripcode", "")
	q.Set("industry", "")
	q.Set("segment", segmentCode)
	q.Set("status", status)
	addr := fmt.Sprintf("%s/BseIndiaAPI/api/ListofScripData/w?%s", c.config.BSEBaseURL, q.Encode())

	c.logger.WithFields(logger.Fields{
		"segment": segment,
		"status":  status,
	}).Debug("Fetching scrip list")

	var raw []struct {
		Code   json.Number `json:"SCRIP_CD"`
		Symbol string      `json:"scrip_id"`
		Name   string      `json:"Scrip_Name"`
		Group  string      `json:"GROUP"`
		Status string      `json:"Status"`
	}
	if err := c.getJSON(ctx, addr, &raw); err != nil {
		return nil, err
	}

	scrips := make([]Scrip, 0, len(raw))
	for _, s := range raw {
		scrips = append(scrips, Scrip{
			Code:   s.Code.String(),
			Symbol: strings.TrimSpace(s.Symbol),
			Name:   strings.TrimSpace(s.Name),
			Group:  strings.TrimSpace(s.Group),
			Status: strings.TrimSpace(s.Status),
		})
	}

	c.logger.WithField("scrips", len(scrips)).Debug("Fetched scrip list")
	return scrips, nil
}

// ScripCode resolves an exchange symbol to its numeric BSE scrip code.
// Matching is case-insensitive.
func (c *Client) ScripCode(ctx context.Context, symbol, segment, status string) (string, error) {
	if symbol == "" {
		return "", apperrors.ValidationError(apperrors.CodeMissingField, "symbol", symbol, nil)
	}
	scrips, err := c.ListScrips(ctx, segment, status)
	if err != nil {
		return "", err
	}
	for _, s := range scrips {
		if strings.EqualFold(s.Symbol, symbol) {
			return s.Code, nil
		}
	}
	return "", apperrors.ValidationError(apperrors.CodeInvalidRecord, "symbol", symbol, nil).
		WithSuggestion("check the symbol against the exchange's scrip list")
}

// ScripCodes resolves several symbols in one scrip list fetch. Symbols the
// segment does not list map to an empty code, with a warning, so one bad
// ticker does not fail a batch.
func (c *Client) ScripCodes(ctx context.Context, symbols []string, segment, status string) (map[string]string, error) {
	scrips, err := c.ListScrips(ctx, segment, status)
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string]string, len(scrips))
	for _, s := range scrips {
		bySymbol[strings.ToUpper(s.Symbol)] = s.Code
	}

	codes := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		code, ok := bySymbol[strings.ToUpper(symbol)]
		if !ok {
			c.logger.WithField("symbol", symbol).Warn("Symbol not listed in segment")
		}
		codes[symbol] = code
	}
	return codes, nil
}
