package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	kinesistypes "github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

var (
	kinesisIncoming  = MetricQuery{Namespace: "AWS/Kinesis", MetricName: "IncomingRecords", DimensionName: "StreamName"}
	firehoseIncoming = MetricQuery{Namespace: "AWS/Firehose", MetricName: "IncomingRecords", DimensionName: "DeliveryStreamName"}
)

// KinesisAPI is the minimal interface for Kinesis operations.
type KinesisAPI interface {
	ListStreams(ctx context.Context, input *kinesis.ListStreamsInput, opts ...func(*kinesis.Options)) (*kinesis.ListStreamsOutput, error)
	DescribeStreamSummary(ctx context.Context, input *kinesis.DescribeStreamSummaryInput, opts ...func(*kinesis.Options)) (*kinesis.DescribeStreamSummaryOutput, error)
}

// KinesisAnalyzer reports data streams and their open shards, the unit
// provisioned streams are billed by.
type KinesisAnalyzer struct {
	client      KinesisAPI
	metrics     *MetricsFetcher
	period      Period
	concurrency int
}

// NewKinesisAnalyzer creates an analyzer for Kinesis data streams. metrics may be nil.
func NewKinesisAnalyzer(client KinesisAPI, metrics *MetricsFetcher, opts Options) *KinesisAnalyzer {
	return &KinesisAnalyzer{client: client, metrics: metrics, period: opts.Period, concurrency: opts.detailConcurrency()}
}

// Kind returns the kind of service this analyzer handles.
func (a *KinesisAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindStream
}

// streamInfo holds metadata from DescribeStreamSummary.
type streamInfo struct {
	shardCount int
	mode       string
	arn        string
	ok         bool
}

// Analyze lists streams and describes each for its mode and shard count.
func (a *KinesisAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	names, err := a.listStreams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list Kinesis streams: %w", err)
	}

	infos := collectEach(ctx, a.concurrency, names, a.describeStream)

	byMode := make(map[string]int)
	shards := 0
	for _, info := range infos {
		byMode[orUnknown(info.mode)]++
		shards += info.shardCount
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.
		Set("total_streams", analyzer.Int(len(names))).
		Set("by_mode", analyzer.Counts(byMode)).
		Set("total_open_shards", analyzer.Int(shards))
	if !includeDetails {
		return rec, nil
	}

	incoming := a.metrics.periodSums(ctx, kinesisIncoming, names, a.period)
	for i, name := range names {
		detail := analyzer.NewMap().
			Set("stream_name", analyzer.String(name)).
			Set("incoming_records", sumValue(incoming, name))
		if !infos[i].ok {
			rec.AddDetail(detail.
				Set("stream_mode", analyzer.Null{}).
				Set("open_shards", analyzer.Null{}))
			continue
		}
		rec.AddDetail(detail.
			Set("stream_arn", analyzer.String(infos[i].arn)).
			Set("stream_mode", analyzer.String(infos[i].mode)).
			Set("open_shards", analyzer.Int(infos[i].shardCount)))
	}
	return rec, nil
}

func (a *KinesisAnalyzer) listStreams(ctx context.Context) ([]string, error) {
	var names []string
	paginator := kinesis.NewListStreamsPaginator(a.client, &kinesis.ListStreamsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		names = append(names, page.StreamNames...)
	}
	return names, nil
}

func (a *KinesisAnalyzer) describeStream(ctx context.Context, name string) streamInfo {
	out, err := a.client.DescribeStreamSummary(ctx, &kinesis.DescribeStreamSummaryInput{
		StreamName: &name,
	})
	if err != nil || out.StreamDescriptionSummary == nil {
		slog.Debug("Failed to describe Kinesis stream", "stream", name, "error", err)
		return streamInfo{}
	}

	summary := out.StreamDescriptionSummary
	mode := string(kinesistypes.StreamModeProvisioned)
	if summary.StreamModeDetails != nil {
		mode = string(summary.StreamModeDetails.StreamMode)
	}
	return streamInfo{
		shardCount: derefInt32(summary.OpenShardCount),
		mode:       mode,
		arn:        deref(summary.StreamARN),
		ok:         true,
	}
}

// FirehoseAPI is the minimal interface for Firehose operations.
type FirehoseAPI interface {
	ListDeliveryStreams(ctx context.Context, input *firehose.ListDeliveryStreamsInput, opts ...func(*firehose.Options)) (*firehose.ListDeliveryStreamsOutput, error)
}

// FirehoseAnalyzer reports delivery streams.
type FirehoseAnalyzer struct {
	client  FirehoseAPI
	metrics *MetricsFetcher
	period  Period
}

// NewFirehoseAnalyzer creates an analyzer for Firehose delivery streams. metrics may be nil.
func NewFirehoseAnalyzer(client FirehoseAPI, metrics *MetricsFetcher, opts Options) *FirehoseAnalyzer {
	return &FirehoseAnalyzer{client: client, metrics: metrics, period: opts.Period}
}

// Kind returns the kind of service this analyzer handles.
func (a *FirehoseAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindStream
}

// Analyze lists delivery streams; detail mode adds incoming record counts.
func (a *FirehoseAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	names, err := a.listDeliveryStreams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list Firehose delivery streams: %w", err)
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.Set("total_delivery_streams", analyzer.Int(len(names)))
	if !includeDetails {
		return rec, nil
	}

	incoming := a.metrics.periodSums(ctx, firehoseIncoming, names, a.period)
	for _, name := range names {
		rec.AddDetail(analyzer.NewMap().
			Set("delivery_stream_name", analyzer.String(name)).
			Set("incoming_records", sumValue(incoming, name)))
	}
	return rec, nil
}

// listDeliveryStreams pages by the last returned name; the API has no token.
func (a *FirehoseAnalyzer) listDeliveryStreams(ctx context.Context) ([]string, error) {
	var names []string
	var startName *string

	for {
		out, err := a.client.ListDeliveryStreams(ctx, &firehose.ListDeliveryStreamsInput{
			ExclusiveStartDeliveryStreamName: startName,
		})
		if err != nil {
			return nil, err
		}
		names = append(names, out.DeliveryStreamNames...)

		if !derefBool(out.HasMoreDeliveryStreams) || len(out.DeliveryStreamNames) == 0 {
			break
		}
		last := out.DeliveryStreamNames[len(out.DeliveryStreamNames)-1]
		startName = &last
	}
	return names, nil
}
