package aws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

const (
	// maxMetricDataQueries is the maximum number of metric queries per GetMetricData call.
	maxMetricDataQueries = 500
	// metricPeriodSeconds aggregates datapoints per day so a month stays well under the datapoint limit.
	metricPeriodSeconds = 86400
)

// errNoMetricWindow is returned when no part of the period has elapsed yet.
var errNoMetricWindow = errors.New("billing period has not started")

// CloudWatchAPI is the minimal interface for CloudWatch operations needed by the metrics fetcher.
type CloudWatchAPI interface {
	GetMetricData(ctx context.Context, input *cloudwatch.GetMetricDataInput, opts ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

// MetricsFetcher retrieves CloudWatch metrics for the billing period in batches.
type MetricsFetcher struct {
	client CloudWatchAPI
}

// NewMetricsFetcher creates a fetcher using the given CloudWatch client.
func NewMetricsFetcher(client CloudWatchAPI) *MetricsFetcher {
	return &MetricsFetcher{client: client}
}

// MetricQuery identifies one metric keyed by a single dimension.
type MetricQuery struct {
	Namespace     string
	MetricName    string
	DimensionName string
}

// FetchSum returns the total of the metric over period for each dimension value.
// Values with no datapoints are absent from the result.
func (f *MetricsFetcher) FetchSum(ctx context.Context, q MetricQuery, ids []string, period Period) (map[string]float64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	start, end, ok := metricWindow(period)
	if !ok {
		return nil, errNoMetricWindow
	}
	results := make(map[string]float64, len(ids))
	batches := batchIDs(ids, maxMetricDataQueries)

	for batchIdx, batch := range batches {
		slog.Debug("Fetching CloudWatch metrics", "batch", batchIdx+1, "total_batches", len(batches), "metric", q.MetricName, "count", len(batch))

		queries := make([]cwtypes.MetricDataQuery, 0, len(batch))
		for i, id := range batch {
			queries = append(queries, cwtypes.MetricDataQuery{
				Id: awssdk.String(fmt.Sprintf("m%d", i)),
				MetricStat: &cwtypes.MetricStat{
					Metric: &cwtypes.Metric{
						Namespace:  awssdk.String(q.Namespace),
						MetricName: awssdk.String(q.MetricName),
						Dimensions: []cwtypes.Dimension{
							{
								Name:  awssdk.String(q.DimensionName),
								Value: awssdk.String(id),
							},
						},
					},
					Period: awssdk.Int32(metricPeriodSeconds),
					Stat:   awssdk.String("Sum"),
				},
			})
		}

		values := make(map[int][]float64, len(batch))
		var token *string
		for {
			out, err := f.client.GetMetricData(ctx, &cloudwatch.GetMetricDataInput{
				MetricDataQueries: queries,
				StartTime:         awssdk.Time(start),
				EndTime:           awssdk.Time(end),
				NextToken:         token,
			})
			if err != nil {
				return nil, fmt.Errorf("get metric data (%s/%s): %w", q.Namespace, q.MetricName, err)
			}

			for _, result := range out.MetricDataResults {
				if result.Id == nil {
					continue
				}
				var idx int
				if _, err := fmt.Sscanf(*result.Id, "m%d", &idx); err != nil || idx >= len(batch) {
					continue
				}
				values[idx] = append(values[idx], result.Values...)
			}

			if out.NextToken == nil || *out.NextToken == "" {
				break
			}
			token = out.NextToken
		}

		for idx, vals := range values {
			if len(vals) == 0 {
				continue
			}
			var total float64
			for _, v := range vals {
				total += v
			}
			results[batch[idx]] = total
		}
	}

	return results, nil
}

// periodSums is FetchSum for analyzers that degrade to null values: it
// returns nil when the fetcher is nil or the query fails.
func (f *MetricsFetcher) periodSums(ctx context.Context, q MetricQuery, ids []string, period Period) map[string]float64 {
	if f == nil {
		return nil
	}
	sums, err := f.FetchSum(ctx, q, ids, period)
	if errors.Is(err, errNoMetricWindow) {
		slog.Debug("Skipping CloudWatch metrics", "namespace", q.Namespace, "metric", q.MetricName, "reason", err)
		return nil
	}
	if err != nil {
		slog.Warn("Failed to fetch CloudWatch metrics", "namespace", q.Namespace, "metric", q.MetricName, "error", err)
		return nil
	}
	if sums == nil {
		sums = map[string]float64{}
	}
	return sums
}

// sumValue renders one id's total, null when metrics were unavailable.
func sumValue(sums map[string]float64, id string) analyzer.Value {
	if sums == nil {
		return analyzer.Null{}
	}
	return analyzer.Int(int64(sums[id]))
}

// metricWindow clamps the period end to now. ok is false when the clamped
// window is empty, i.e. the whole period lies in the future.
func metricWindow(p Period) (start, end time.Time, ok bool) {
	now := time.Now().UTC()
	end = p.End
	if end.IsZero() || end.After(now) {
		end = now
	}
	start = p.Start
	if start.IsZero() {
		start = end.Add(-24 * time.Hour)
	}
	return start, end, start.Before(end)
}

// batchIDs splits a slice of IDs into batches of the given size.
func batchIDs(ids []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = maxMetricDataQueries
	}

	var batches [][]string
	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}
