package aws

import (
	"time"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

const (
	// defaultDetailConcurrency bounds per-resource describe calls inside one analyzer.
	defaultDetailConcurrency = 8
)

// Period is the billing window being analyzed. End is exclusive.
type Period struct {
	Start time.Time
	End   time.Time
}

// Options carries the settings shared by every built-in analyzer.
type Options struct {
	// Period is used by analyzers that pull usage metrics for the billed window.
	Period Period
	// DetailConcurrency bounds the N+1 describe calls made in detail mode.
	DetailConcurrency int
}

func (o Options) detailConcurrency() int {
	if o.DetailConcurrency <= 0 {
		return defaultDetailConcurrency
	}
	return o.DetailConcurrency
}

// TypeSpec is the capacity of one canonical compute type.
type TypeSpec struct {
	VCPU          int
	MemoryMiB     int
	Architectures []string
}

// Architecture buckets used by the compute analyzer.
const (
	ArchARM     = "arm"
	ArchX86     = "x86"
	ArchUnknown = "unknown"
)

// Lifecycle buckets used by the compute analyzer.
const (
	LifecycleSpot     = "spot"
	LifecycleOnDemand = "on_demand"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt32(n *int32) int {
	if n == nil {
		return 0
	}
	return int(*n)
}

func derefInt64(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

func timeValue(t *time.Time) analyzer.Value {
	if t == nil {
		return analyzer.Null{}
	}
	return analyzer.String(t.UTC().Format(time.RFC3339))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// ec2TagsToMap converts EC2 tags to a map. Tags with a nil key are skipped.
func ec2TagsToMap(tags []ec2types.Tag) map[string]string {
	if tags == nil {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key == nil {
			continue
		}
		m[*t.Key] = deref(t.Value)
	}
	return m
}
