package securities

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"golang-consolidation-service/internal/models"
	apperrors "golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"
)

// EventType classifies a corporate action by its announced purpose.
type EventType string

const (
	EventDividend EventType = "dividend"
	EventBonus    EventType = "bonus"
	EventSplit    EventType = "split"
	EventOther    EventType = "other"
)

// IsValid reports whether the event type is one of the known classes.
func (t EventType) IsValid() bool {
	switch t {
	case EventDividend, EventBonus, EventSplit, EventOther:
		return true
	}
	return false
}

// CorporateEvent is a single corporate action with its effective date and,
// where the purpose carries one, its monetary value or adjustment ratio.
type CorporateEvent struct {
	Security string          `json:"security"`
	Type     EventType       `json:"type"`
	ExDate   models.Date     `json:"ex_date"`
	Purpose  string          `json:"purpose"`
	// Value is the dividend amount per share for dividends, and the
	// holding adjustment ratio for bonuses and splits. Zero for other
	// event types.
	Value decimal.Decimal `json:"value"`
}

var (
	dividendRe = regexp.MustCompile(`rs\. - ([\d.]+)`)
	bonusRe    = regexp.MustCompile(`(\d+):(\d+)`)
	splitRe    = regexp.MustCompile(`rs\.(\d+)/- to rs\.(\d+)/-`)
)

// bseEvent mirrors one entry of the BSE corporate actions response.
type bseEvent struct {
	ShortName string `json:"short_name"`
	Purpose   string `json:"Purpose"`
	ExDate    string `json:"Ex_date"`
}

const bseDateLayout = "02 Jan 2006"

// CorporateEvents fetches the corporate actions announced for a BSE scrip
// code between from and to inclusive.
func (c *Client) CorporateEvents(ctx context.Context, scripCode string, from, to models.Date) ([]CorporateEvent, error) {
	if scripCode == "" {
		return nil, apperrors.ValidationError(apperrors.CodeMissingField, "scrip_code", scripCode, nil)
	}
	if to.Before(from) {
		return nil, apperrors.ValidationError(apperrors.CodeInvalidDate, "range",
			fmt.Sprintf("%s..%s", from, to), nil).
			WithSuggestion("the end date must not precede the start date")
	}

	q := url.Values{}
	q.Set("Fdate", from.Format("20060102"))
	q.Set("TDate", to.Format("20060102"))
	q.Set("Purposecode", "")
	q.Set("ddlcategorys", "E")
	q.Set("ddlindustrys", "")
	q.Set("scripcode", scripCode)
	q.Set("segment", "0")
	q.Set("strSearch", "S")
	addr := fmt.Sprintf("%s/BseIndiaAPI/api/DefaultData/w?%s", c.config.BSEBaseURL, q.Encode())

	c.logger.WithFields(logger.Fields{
		"scrip_code": scripCode,
		"from":       from.String(),
		"to":         to.String(),
	}).Debug("Fetching corporate events")

	var raw []bseEvent
	if err := c.getJSON(ctx, addr, &raw); err != nil {
		return nil, err
	}

	events := make([]CorporateEvent, 0, len(raw))
	for _, e := range raw {
		exDate, err := models.ParseDateLayout(bseDateLayout, strings.TrimSpace(e.ExDate))
		if err != nil {
			c.logger.WithFields(logger.Fields{
				"security": e.ShortName,
				"ex_date":  e.ExDate,
			}).Warn("Skipping corporate event with unreadable ex-date")
			continue
		}
		eventType, value := classifyPurpose(e.Purpose)
		events = append(events, CorporateEvent{
			Security: e.ShortName,
			Type:     eventType,
			ExDate:   exDate,
			Purpose:  strings.TrimSpace(e.Purpose),
			Value:    value,
		})
	}

	c.logger.WithField("events", len(events)).Debug("Fetched corporate events")
	return events, nil
}

// FilterEvents returns the events of one type, preserving order.
func FilterEvents(events []CorporateEvent, eventType EventType) []CorporateEvent {
	filtered := make([]CorporateEvent, 0, len(events))
	for _, e := range events {
		if e.Type == eventType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// classifyPurpose maps an announced purpose string onto an event type and
// extracts the value it carries. Dividend purposes name a per-share amount,
// bonus purposes an x:y issue ratio and split purposes the old and new face
// values. The ratio for a bonus of x:y is (x+y)/y and for a split it is the
// old face value over the new one.
func classifyPurpose(purpose string) (EventType, decimal.Decimal) {
	lower := strings.ToLower(purpose)

	if strings.Contains(lower, "dividend") {
		if m := dividendRe.FindStringSubmatch(lower); m != nil {
			if amount, err := decimal.NewFromString(m[1]); err == nil {
				return EventDividend, amount
			}
		}
		return EventDividend, decimal.Zero
	}

	if strings.Contains(lower, "bonus issue") {
		if m := bonusRe.FindStringSubmatch(lower); m != nil {
			x, errX := decimal.NewFromString(m[1])
			y, errY := decimal.NewFromString(m[2])
			if errX == nil && errY == nil && !y.IsZero() {
				return EventBonus, x.Add(y).Div(y).RoundBank(6)
			}
		}
		return EventBonus, decimal.Zero
	}

	if strings.Contains(lower, "split") || strings.Contains(lower, "sub-division") {
		if m := splitRe.FindStringSubmatch(lower); m != nil {
			oldFace, errOld := decimal.NewFromString(m[1])
			newFace, errNew := decimal.NewFromString(m[2])
			if errOld == nil && errNew == nil && !newFace.IsZero() {
				return EventSplit, oldFace.Div(newFace).RoundBank(6)
			}
		}
		return EventSplit, decimal.Zero
	}

	return EventOther, decimal.Zero
}
