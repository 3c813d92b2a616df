package aws

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// SNSAPI is the minimal interface for SNS operations.
type SNSAPI interface {
	ListTopics(ctx context.Context, input *sns.ListTopicsInput, opts ...func(*sns.Options)) (*sns.ListTopicsOutput, error)
	GetTopicAttributes(ctx context.Context, input *sns.GetTopicAttributesInput, opts ...func(*sns.Options)) (*sns.GetTopicAttributesOutput, error)
}

// SNSAnalyzer counts topics and, in detail mode, their subscriptions.
type SNSAnalyzer struct {
	client      SNSAPI
	concurrency int
}

// NewSNSAnalyzer creates an analyzer for SNS topics.
func NewSNSAnalyzer(client SNSAPI, opts Options) *SNSAnalyzer {
	return &SNSAnalyzer{client: client, concurrency: opts.detailConcurrency()}
}

// Kind returns the kind of service this analyzer handles.
func (a *SNSAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindPubSub
}

// Analyze lists topics.
func (a *SNSAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	topics, err := a.listTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list SNS topics: %w", err)
	}

	fifo := 0
	for _, t := range topics {
		if strings.HasSuffix(deref(t.TopicArn), ".fifo") {
			fifo++
		}
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.
		Set("total_topics", analyzer.Int(len(topics))).
		Set("fifo_topics", analyzer.Int(fifo))
	if !includeDetails {
		return rec, nil
	}

	attrs := collectEach(ctx, a.concurrency, topics, func(ctx context.Context, t snstypes.Topic) map[string]string {
		out, err := a.client.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{TopicArn: t.TopicArn})
		if err != nil {
			slog.Debug("Failed to get SNS topic attributes", "topic", deref(t.TopicArn), "error", err)
			return nil
		}
		return out.Attributes
	})

	confirmed := 0
	for i, t := range topics {
		arn := deref(t.TopicArn)
		n, _ := strconv.Atoi(attrs[i]["SubscriptionsConfirmed"])
		confirmed += n

		var attributes analyzer.Value = analyzer.Null{}
		if attrs[i] != nil {
			attributes = analyzer.Strings(attrs[i])
		}
		rec.AddDetail(analyzer.NewMap().
			Set("topic_arn", analyzer.String(arn)).
			Set("name", analyzer.String(topicNameFromARN(arn))).
			Set("attributes", attributes))
	}
	rec.Summary.Set("total_confirmed_subscriptions", analyzer.Int(confirmed))
	return rec, nil
}

func (a *SNSAnalyzer) listTopics(ctx context.Context) ([]snstypes.Topic, error) {
	var topics []snstypes.Topic
	paginator := sns.NewListTopicsPaginator(a.client, &sns.ListTopicsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		topics = append(topics, page.Topics...)
	}
	return topics, nil
}

// topicNameFromARN extracts the topic name from an SNS topic ARN.
// e.g., "arn:aws:sns:us-east-1:123456789012:my-topic" → "my-topic"
func topicNameFromARN(arn string) string {
	parts := strings.Split(arn, ":")
	return parts[len(parts)-1]
}
