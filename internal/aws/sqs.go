package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// SQSAPI is the minimal interface for SQS operations.
type SQSAPI interface {
	ListQueues(ctx context.Context, input *sqs.ListQueuesInput, opts ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error)
	GetQueueAttributes(ctx context.Context, input *sqs.GetQueueAttributesInput, opts ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// SQSAnalyzer counts queues and, in detail mode, their attributes and backlog.
type SQSAnalyzer struct {
	client      SQSAPI
	concurrency int
}

// NewSQSAnalyzer creates an analyzer for SQS queues.
func NewSQSAnalyzer(client SQSAPI, opts Options) *SQSAnalyzer {
	return &SQSAnalyzer{client: client, concurrency: opts.detailConcurrency()}
}

// Kind returns the kind of service this analyzer handles.
func (a *SQSAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindQueue
}

// Analyze lists queue URLs.
func (a *SQSAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	urls, err := a.listQueues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list SQS queues: %w", err)
	}

	fifo := 0
	for _, u := range urls {
		if strings.HasSuffix(u, ".fifo") {
			fifo++
		}
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.
		Set("total_queues", analyzer.Int(len(urls))).
		Set("fifo_queues", analyzer.Int(fifo))
	if !includeDetails {
		return rec, nil
	}

	attrs := collectEach(ctx, a.concurrency, urls, func(ctx context.Context, url string) map[string]string {
		out, err := a.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
			QueueUrl:       &url,
			AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameAll},
		})
		if err != nil {
			slog.Debug("Failed to get SQS queue attributes", "queue", queueNameFromURL(url), "error", err)
			return nil
		}
		return out.Attributes
	})

	withDLQ, visible := 0, 0
	for i, url := range urls {
		if parseDLQArn(attrs[i]["RedrivePolicy"]) != "" {
			withDLQ++
		}
		n, _ := strconv.Atoi(attrs[i]["ApproximateNumberOfMessages"])
		visible += n

		var attributes analyzer.Value = analyzer.Null{}
		if attrs[i] != nil {
			attributes = analyzer.Strings(attrs[i])
		}
		rec.AddDetail(analyzer.NewMap().
			Set("queue_url", analyzer.String(url)).
			Set("name", analyzer.String(queueNameFromURL(url))).
			Set("attributes", attributes))
	}
	rec.Summary.
		Set("queues_with_dlq", analyzer.Int(withDLQ)).
		Set("approximate_visible_messages", analyzer.Int(visible))
	return rec, nil
}

func (a *SQSAnalyzer) listQueues(ctx context.Context) ([]string, error) {
	var urls []string
	paginator := sqs.NewListQueuesPaginator(a.client, &sqs.ListQueuesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		urls = append(urls, page.QueueUrls...)
	}
	return urls, nil
}

// queueNameFromURL extracts the queue name from an SQS queue URL.
// e.g., "https://sqs.us-east-1.amazonaws.com/123456789012/my-queue" → "my-queue"
func queueNameFromURL(url string) string {
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// parseDLQArn extracts deadLetterTargetArn from a RedrivePolicy JSON string.
func parseDLQArn(redrivePolicy string) string {
	if redrivePolicy == "" {
		return ""
	}
	var policy struct {
		DeadLetterTargetArn string `json:"deadLetterTargetArn"`
	}
	if err := json.Unmarshal([]byte(redrivePolicy), &policy); err != nil {
		return ""
	}
	return policy.DeadLetterTargetArn
}
