package aws

import (
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

func TestOptions_DetailConcurrencyDefault(t *testing.T) {
	if got := (Options{}).detailConcurrency(); got != defaultDetailConcurrency {
		t.Fatalf("expected default %d, got %d", defaultDetailConcurrency, got)
	}
	if got := (Options{DetailConcurrency: -3}).detailConcurrency(); got != defaultDetailConcurrency {
		t.Fatalf("expected default for negative value, got %d", got)
	}
	if got := (Options{DetailConcurrency: 2}).detailConcurrency(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestDerefHelpers_Nil(t *testing.T) {
	if deref(nil) != "" || derefInt32(nil) != 0 || derefInt64(nil) != 0 || derefBool(nil) {
		t.Fatal("expected zero values for nil pointers")
	}
	if deref(awssdk.String("x")) != "x" || derefInt32(awssdk.Int32(7)) != 7 || !derefBool(awssdk.Bool(true)) {
		t.Fatal("expected pointed-to values")
	}
}

func TestTimeValue(t *testing.T) {
	if _, ok := timeValue(nil).(analyzer.Null); !ok {
		t.Fatal("expected Null for nil time")
	}
	local := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))
	if got := timeValue(&local); got != analyzer.String("2024-05-01T10:00:00Z") {
		t.Fatalf("expected UTC RFC3339, got %v", got)
	}
}

func TestOrUnknown(t *testing.T) {
	if orUnknown("") != "unknown" || orUnknown("gp3") != "gp3" {
		t.Fatal("unexpected orUnknown result")
	}
}

func TestEC2TagsToMap(t *testing.T) {
	tags := []ec2types.Tag{
		{Key: awssdk.String("Name"), Value: awssdk.String("web-1")},
		{Key: awssdk.String("Env"), Value: awssdk.String("prod")},
	}
	m := ec2TagsToMap(tags)
	if m["Name"] != "web-1" || m["Env"] != "prod" {
		t.Fatalf("unexpected map: %v", m)
	}
}

func TestEC2TagsToMap_Nil(t *testing.T) {
	if ec2TagsToMap(nil) != nil {
		t.Fatal("expected nil for nil input")
	}
}

func TestEC2TagsToMap_NilKeyValue(t *testing.T) {
	tags := []ec2types.Tag{
		{Key: nil, Value: awssdk.String("orphan")},
		{Key: awssdk.String("NoValue"), Value: nil},
	}
	m := ec2TagsToMap(tags)
	if len(m) != 1 {
		t.Fatalf("expected 1 entry (nil key skipped), got %d", len(m))
	}
	if m["NoValue"] != "" {
		t.Fatalf("expected empty string for nil value, got %q", m["NoValue"])
	}
}
