package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/awsfootprint/internal/discovery"
)

// Reporter writes a discovery result in one output format.
type Reporter interface {
	Generate(result *discovery.Result) error
}

// JSONReporter writes the result as indented JSON without transforming it.
type JSONReporter struct {
	Writer io.Writer
}

// Generate writes the JSON report.
func (r *JSONReporter) Generate(result *discovery.Result) error {
	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode JSON report: %w", err)
	}
	return nil
}

// ErrorPayload is the single-line body written to stdout when a run aborts.
type ErrorPayload struct {
	Error string `json:"error"`
}

// WriteError writes {"error": "..."} followed by a newline.
func WriteError(w io.Writer, err error) error {
	data, mErr := json.Marshal(ErrorPayload{Error: err.Error()})
	if mErr != nil {
		return fmt.Errorf("encode error payload: %w", mErr)
	}
	_, wErr := fmt.Fprintln(w, string(data))
	return wErr
}
