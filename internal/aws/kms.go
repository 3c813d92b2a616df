package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// KMSAPI is the minimal interface for KMS operations.
type KMSAPI interface {
	ListKeys(ctx context.Context, input *kms.ListKeysInput, opts ...func(*kms.Options)) (*kms.ListKeysOutput, error)
	DescribeKey(ctx context.Context, input *kms.DescribeKeyInput, opts ...func(*kms.Options)) (*kms.DescribeKeyOutput, error)
}

// KMSAnalyzer counts keys. Detail mode describes each key to split customer
// and AWS managed keys, which are billed differently.
type KMSAnalyzer struct {
	client      KMSAPI
	concurrency int
}

// NewKMSAnalyzer creates an analyzer for KMS keys.
func NewKMSAnalyzer(client KMSAPI, opts Options) *KMSAnalyzer {
	return &KMSAnalyzer{client: client, concurrency: opts.detailConcurrency()}
}

// Kind returns the kind of service this analyzer handles.
func (a *KMSAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindKeyManagement
}

// Analyze lists all keys.
func (a *KMSAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var keys []kmstypes.KeyListEntry
	paginator := kms.NewListKeysPaginator(a.client, &kms.ListKeysInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list KMS keys: %w", err)
		}
		keys = append(keys, page.Keys...)
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.Set("total_keys", analyzer.Int(len(keys)))
	if !includeDetails {
		return rec, nil
	}

	metas := collectEach(ctx, a.concurrency, keys, func(ctx context.Context, k kmstypes.KeyListEntry) *kmstypes.KeyMetadata {
		out, err := a.client.DescribeKey(ctx, &kms.DescribeKeyInput{KeyId: k.KeyId})
		if err != nil {
			slog.Debug("Failed to describe KMS key", "key", deref(k.KeyId), "error", err)
			return nil
		}
		return out.KeyMetadata
	})

	byState := make(map[string]int)
	byManager := make(map[string]int)
	for i, k := range keys {
		detail := analyzer.NewMap().Set("key_id", analyzer.StringPtr(k.KeyId))
		meta := metas[i]
		if meta == nil {
			byState[unknownClass]++
			byManager[unknownClass]++
			rec.AddDetail(detail.
				Set("description", analyzer.Null{}).
				Set("key_state", analyzer.Null{}).
				Set("key_manager", analyzer.Null{}))
			continue
		}
		byState[string(meta.KeyState)]++
		byManager[string(meta.KeyManager)]++
		rec.AddDetail(detail.
			Set("description", analyzer.StringPtr(meta.Description)).
			Set("key_state", analyzer.String(string(meta.KeyState))).
			Set("key_manager", analyzer.String(string(meta.KeyManager))).
			Set("key_spec", analyzer.String(string(meta.KeySpec))))
	}
	rec.Summary.
		Set("by_state", analyzer.Counts(byState)).
		Set("by_key_manager", analyzer.Counts(byManager))
	return rec, nil
}
