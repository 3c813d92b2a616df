package discovery

import "errors"

// ErrCostQuery is returned by Discover when the cost query fails. It is the
// only condition that aborts a run.
var ErrCostQuery = errors.New("cost query failed")

const (
	noteUnsupported   = "In-depth analysis not supported yet"
	noteAnalyzerError = "analyzer error: "
)
