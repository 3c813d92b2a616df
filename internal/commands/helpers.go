package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/awsfootprint/internal/discovery"
)

const dateLayout = "2006-01-02"

// enhanceError wraps an error with context and suggestions for common AWS issues.
func enhanceError(action string, err error) error {
	msg := err.Error()

	var hint string
	switch {
	case strings.Contains(msg, "NoCredentialProviders") || strings.Contains(msg, "failed to retrieve credentials"):
		hint = "Configure AWS credentials: set AWS_PROFILE, AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY, or run 'aws configure'"
	case strings.Contains(msg, "ExpiredToken"):
		hint = "AWS session token expired. Refresh credentials or run 'aws sso login'"
	case strings.Contains(msg, "DataUnavailableException") || strings.Contains(msg, "not enabled for cost explorer"):
		hint = "Cost Explorer is not enabled for this account, or data is not ready yet. Enable it in the Billing console and wait up to 24 hours"
	case strings.Contains(msg, "AccessDenied") || strings.Contains(msg, "UnauthorizedAccess"):
		hint = "Insufficient permissions. Apply the IAM policy from 'awsfootprint init' to your role/user"
	case strings.Contains(msg, "RequestExpired"):
		hint = "Request expired. Check system clock synchronization"
	case strings.Contains(msg, "Throttling") || strings.Contains(msg, "LimitExceededException"):
		hint = "AWS API rate limit hit. Retry with a lower --concurrency or a larger --call-timeout"
	}

	if hint != "" {
		return fmt.Errorf("%s: %w\n  hint: %s", action, err, hint)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// resolvePeriod parses --start and --end. Missing values default to the
// first and last day of the month containing now. Both dates are inclusive.
func resolvePeriod(start, end string, now time.Time) (discovery.Period, error) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	period := discovery.Period{Start: first, End: first.AddDate(0, 1, -1)}

	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return discovery.Period{}, fmt.Errorf("invalid --start %q: expected YYYY-MM-DD", start)
		}
		period.Start = t
	}
	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return discovery.Period{}, fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", end)
		}
		period.End = t
	}
	if period.End.Before(period.Start) {
		return discovery.Period{}, fmt.Errorf("--end %s is before --start %s",
			period.End.Format(dateLayout), period.Start.Format(dateLayout))
	}
	return period, nil
}
