package aws

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/shopspring/decimal"
)

const (
	costMetric  = "UnblendedCost"
	defaultUnit = "USD"
	dateLayout  = "2006-01-02"
)

// CostExplorerAPI is the minimal interface for Cost Explorer operations.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, input *costexplorer.GetCostAndUsageInput, opts ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// CostEntry is the total cost of one billed service over the queried window.
type CostEntry struct {
	Service string
	Amount  decimal.Decimal
	Unit    string
}

// QueryError reports that the cost query itself could not complete.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// CostCollector sums per-service costs from Cost Explorer.
type CostCollector struct {
	client CostExplorerAPI
}

// NewCostCollector creates a collector using the given Cost Explorer client.
func NewCostCollector(client CostExplorerAPI) *CostCollector {
	return &CostCollector{client: client}
}

// ServiceCosts returns one entry per billed service between start and end,
// sorted by service name ignoring case. Amounts for the same service across
// pages and time buckets are summed. Any failed page aborts with *QueryError.
func (c *CostCollector) ServiceCosts(ctx context.Context, start, end time.Time, granularity string) ([]CostEntry, error) {
	if granularity == "" {
		granularity = string(cetypes.GranularityMonthly)
	}

	totals := make(map[string]*CostEntry)
	var token *string
	page := 0

	for {
		page++
		slog.Debug("Querying Cost Explorer", "page", page, "start", start.Format(dateLayout), "end", end.Format(dateLayout))

		out, err := c.client.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
			TimePeriod: &cetypes.DateInterval{
				Start: awssdk.String(start.Format(dateLayout)),
				End:   awssdk.String(end.Format(dateLayout)),
			},
			Granularity: cetypes.Granularity(granularity),
			Metrics:     []string{costMetric},
			GroupBy: []cetypes.GroupDefinition{
				{
					Type: cetypes.GroupDefinitionTypeDimension,
					Key:  awssdk.String("SERVICE"),
				},
			},
			NextPageToken: token,
		})
		if err != nil {
			return nil, &QueryError{Op: fmt.Sprintf("get cost and usage (page %d)", page), Err: err}
		}

		for _, period := range out.ResultsByTime {
			for _, g := range period.Groups {
				accumulateGroup(totals, g)
			}
		}

		if out.NextPageToken == nil || *out.NextPageToken == "" {
			break
		}
		token = out.NextPageToken
	}

	entries := make([]CostEntry, 0, len(totals))
	for _, e := range totals {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if li, lj := strings.ToLower(entries[i].Service), strings.ToLower(entries[j].Service); li != lj {
			return li < lj
		}
		return entries[i].Service < entries[j].Service
	})
	return entries, nil
}

func accumulateGroup(totals map[string]*CostEntry, g cetypes.Group) {
	name := "Unknown"
	if len(g.Keys) > 0 && g.Keys[0] != "" {
		name = g.Keys[0]
	}

	amount := decimal.Zero
	unit := defaultUnit
	if m, ok := g.Metrics[costMetric]; ok {
		if raw := deref(m.Amount); raw != "" {
			parsed, err := decimal.NewFromString(raw)
			if err != nil {
				slog.Warn("Unparsable cost amount, counting as zero", "service", name, "amount", raw, "error", err)
			} else {
				amount = parsed
			}
		}
		if u := deref(m.Unit); u != "" {
			unit = u
		}
	}

	entry, ok := totals[name]
	if !ok {
		totals[name] = &CostEntry{Service: name, Amount: amount, Unit: unit}
		return
	}
	entry.Amount = entry.Amount.Add(amount)
}
