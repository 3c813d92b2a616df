package discovery

import (
	"encoding/json"
	"time"

	"github.com/ppiankov/awsfootprint/internal/analyzer"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Period is the reported billing window. Both dates are inclusive.
type Period struct {
	Start time.Time
	End   time.Time
}

// MarshalJSON writes the period as {"start":"YYYY-MM-DD","end":"YYYY-MM-DD"}.
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{p.Start.Format(dateLayout), p.End.Format(dateLayout)})
}

// ServiceReport is the outcome for one billed service.
type ServiceReport struct {
	Name      string
	Cost      decimal.Decimal
	Unit      string
	Supported bool
	Kind      analyzer.Kind
	Detail    *analyzer.Record
	Note      string
}

// MarshalJSON writes the cost as a JSON number and omits empty fields.
func (s ServiceReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name      string           `json:"name"`
		Cost      json.Number      `json:"cost"`
		Unit      string           `json:"unit,omitempty"`
		Supported bool             `json:"supported"`
		Kind      analyzer.Kind    `json:"analyzer,omitempty"`
		Detail    *analyzer.Record `json:"detail,omitempty"`
		Note      string           `json:"note,omitempty"`
	}{
		Name:      s.Name,
		Cost:      json.Number(s.Cost.String()),
		Unit:      s.Unit,
		Supported: s.Supported,
		Kind:      s.Kind,
		Detail:    s.Detail,
		Note:      s.Note,
	})
}

// SkippedService is a billed service excluded by the filter.
type SkippedService struct {
	Name   string     `json:"name"`
	Reason SkipReason `json:"reason"`
}

// Result is the output of one discovery run.
type Result struct {
	Account  string           `json:"account,omitempty"`
	Period   Period           `json:"period"`
	Services []ServiceReport  `json:"services"`
	Skipped  []SkippedService `json:"skipped,omitempty"`
}

// Progress reports dispatch progress to callers.
type Progress struct {
	Service   string
	Done      int
	Total     int
	Message   string
	Timestamp time.Time
}
