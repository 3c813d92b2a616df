package aws

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

type mockSQSClient struct {
	queueURLs  []string
	attributes map[string]map[string]string // queueURL → attributes

	mu        sync.Mutex
	requested []sqstypes.QueueAttributeName
	attrCalls int
}

func (m *mockSQSClient) requestedNames() []sqstypes.QueueAttributeName {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requested
}

func (m *mockSQSClient) ListQueues(_ context.Context, _ *sqs.ListQueuesInput, _ ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	return &sqs.ListQueuesOutput{QueueUrls: m.queueURLs}, nil
}

func (m *mockSQSClient) GetQueueAttributes(_ context.Context, input *sqs.GetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	m.mu.Lock()
	m.requested = input.AttributeNames
	m.attrCalls++
	m.mu.Unlock()

	attrs, ok := m.attributes[*input.QueueUrl]
	if !ok {
		return nil, fmt.Errorf("QueueDoesNotExist")
	}
	return &sqs.GetQueueAttributesOutput{Attributes: attrs}, nil
}

const queuePrefix = "https://sqs.us-east-1.amazonaws.com/123456789012/"

func TestSQSAnalyzer_Summary(t *testing.T) {
	mock := &mockSQSClient{queueURLs: []string{queuePrefix + "jobs", queuePrefix + "jobs.fifo", queuePrefix + "dlq"}}

	rec, err := NewSQSAnalyzer(mock, Options{}).Analyze(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := intAt(t, rec.Summary, "total_queues"); got != 3 {
		t.Fatalf("expected 3 queues, got %d", got)
	}
	if got := intAt(t, rec.Summary, "fifo_queues"); got != 1 {
		t.Fatalf("expected 1 fifo queue, got %d", got)
	}
	if _, ok := rec.Summary.Get("queues_with_dlq"); ok {
		t.Fatal("dlq count requires attributes and should only appear with details")
	}
}

func TestSQSAnalyzer_Details(t *testing.T) {
	mock := &mockSQSClient{
		queueURLs: []string{queuePrefix + "jobs", queuePrefix + "dlq", queuePrefix + "gone"},
		attributes: map[string]map[string]string{
			queuePrefix + "jobs": {
				"ApproximateNumberOfMessages": "12",
				"RedrivePolicy":               `{"deadLetterTargetArn":"arn:aws:sqs:us-east-1:123456789012:dlq","maxReceiveCount":5}`,
			},
			queuePrefix + "dlq": {"ApproximateNumberOfMessages": "4"},
		},
	}

	rec, err := NewSQSAnalyzer(mock, Options{}).Analyze(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mock.requestedNames(); len(got) != 1 || got[0] != sqstypes.QueueAttributeNameAll {
		t.Fatalf("expected All attributes requested, got %v", got)
	}
	if got := intAt(t, rec.Summary, "queues_with_dlq"); got != 1 {
		t.Fatalf("expected 1 queue with dlq, got %d", got)
	}
	if got := intAt(t, rec.Summary, "approximate_visible_messages"); got != 16 {
		t.Fatalf("expected 16 messages, got %d", got)
	}
	if len(rec.Details) != 3 {
		t.Fatalf("expected 3 details, got %d", len(rec.Details))
	}
	name, _ := rec.Details[1].(*analyzer.Map).Get("name")
	if name != analyzer.String("dlq") {
		t.Fatalf("expected name dlq, got %v", name)
	}
	attrs, _ := rec.Details[2].(*analyzer.Map).Get("attributes")
	if _, ok := attrs.(analyzer.Null); !ok {
		t.Fatalf("expected null attributes for failed queue, got %v", attrs)
	}
}

func TestSQSAnalyzer_ConcurrentAttributeCalls(t *testing.T) {
	mock := &mockSQSClient{attributes: map[string]map[string]string{}}
	for i := 0; i < 50; i++ {
		url := fmt.Sprintf("%squeue-%02d", queuePrefix, i)
		mock.queueURLs = append(mock.queueURLs, url)
		mock.attributes[url] = map[string]string{"ApproximateNumberOfMessages": "1"}
	}

	rec, err := NewSQSAnalyzer(mock, Options{DetailConcurrency: 8}).Analyze(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mock.mu.Lock()
	calls := mock.attrCalls
	mock.mu.Unlock()
	if calls != 50 {
		t.Fatalf("expected 50 attribute calls, got %d", calls)
	}
	if got := intAt(t, rec.Summary, "approximate_visible_messages"); got != 50 {
		t.Fatalf("expected 50 messages, got %d", got)
	}
	name, _ := rec.Details[49].(*analyzer.Map).Get("name")
	if name != analyzer.String("queue-49") {
		t.Fatalf("expected details in listing order, got %v", name)
	}
}

func TestQueueNameFromURL(t *testing.T) {
	if got := queueNameFromURL(queuePrefix + "my-queue"); got != "my-queue" {
		t.Fatalf("got %q", got)
	}
}

func TestParseDLQArn(t *testing.T) {
	tests := []struct {
		name   string
		policy string
		want   string
	}{
		{"empty", "", ""},
		{"invalid json", "{", ""},
		{"valid", `{"deadLetterTargetArn":"arn:dlq"}`, "arn:dlq"},
		{"missing key", `{"maxReceiveCount":3}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDLQArn(tt.policy); got != tt.want {
				t.Fatalf("parseDLQArn() = %q, want %q", got, tt.want)
			}
		})
	}
}
