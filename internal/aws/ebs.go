package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// EBSAPI is the minimal interface for EBS volume and snapshot operations.
type EBSAPI interface {
	DescribeVolumes(ctx context.Context, input *ec2.DescribeVolumesInput, opts ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
	DescribeSnapshots(ctx context.Context, input *ec2.DescribeSnapshotsInput, opts ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
}

// BlockStorageAnalyzer reports EBS volumes and the account's own snapshots,
// the resources billed under "EC2 - Other".
type BlockStorageAnalyzer struct {
	client EBSAPI
}

// NewBlockStorageAnalyzer creates an analyzer for EBS volumes and snapshots.
func NewBlockStorageAnalyzer(client EBSAPI) *BlockStorageAnalyzer {
	return &BlockStorageAnalyzer{client: client}
}

// Kind returns the kind of service this analyzer handles.
func (a *BlockStorageAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindBlockStorage
}

// Analyze lists volumes and snapshots. A snapshot listing failure leaves
// the snapshot totals null rather than failing the volumes.
func (a *BlockStorageAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	volumes, err := a.listVolumes(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe EBS volumes: %w", err)
	}

	type volumeTotals struct {
		count int
		gib   int64
	}
	byType := make(map[string]*volumeTotals)
	byState := make(map[string]int)
	var totalGiB, totalIOPS int64
	unattached := 0

	rec := analyzer.NewRecord(includeDetails)
	for _, v := range volumes {
		size := int64(derefInt32(v.Size))
		totalGiB += size
		totalIOPS += int64(derefInt32(v.Iops))
		if v.State == ec2types.VolumeStateAvailable {
			unattached++
		}
		byState[orUnknown(string(v.State))]++

		vt := orUnknown(string(v.VolumeType))
		if byType[vt] == nil {
			byType[vt] = &volumeTotals{}
		}
		byType[vt].count++
		byType[vt].gib += size

		rec.AddDetail(analyzer.NewMap().
			Set("resource", analyzer.String("volume")).
			Set("volume_id", analyzer.StringPtr(v.VolumeId)).
			Set("volume_type", analyzer.String(string(v.VolumeType))).
			Set("size_gib", analyzer.Int32Ptr(v.Size)).
			Set("iops", analyzer.Int32Ptr(v.Iops)).
			Set("state", analyzer.String(string(v.State))).
			Set("availability_zone", analyzer.StringPtr(v.AvailabilityZone)).
			Set("attachments", analyzer.Int(len(v.Attachments))))
	}

	typeMap := analyzer.NewMap()
	for _, vt := range sortedKeys(byType) {
		typeMap.Set(vt, analyzer.NewMap().
			Set("count", analyzer.Int(byType[vt].count)).
			Set("size_gib", analyzer.Int(byType[vt].gib)))
	}

	rec.Summary.
		Set("total_volumes", analyzer.Int(len(volumes))).
		Set("total_volume_gib", analyzer.Int(totalGiB)).
		Set("total_provisioned_iops", analyzer.Int(totalIOPS)).
		Set("unattached_volumes", analyzer.Int(unattached)).
		Set("by_volume_type", typeMap).
		Set("by_state", analyzer.Counts(byState))

	snapshots, err := a.listSnapshots(ctx)
	if err != nil {
		slog.Warn("Failed to describe EBS snapshots", "error", err)
		rec.Summary.
			Set("total_snapshots", analyzer.Null{}).
			Set("total_snapshot_gib", analyzer.Null{})
		return rec, nil
	}

	var snapshotGiB int64
	for _, s := range snapshots {
		snapshotGiB += int64(derefInt32(s.VolumeSize))
		rec.AddDetail(analyzer.NewMap().
			Set("resource", analyzer.String("snapshot")).
			Set("snapshot_id", analyzer.StringPtr(s.SnapshotId)).
			Set("volume_id", analyzer.StringPtr(s.VolumeId)).
			Set("size_gib", analyzer.Int32Ptr(s.VolumeSize)).
			Set("storage_tier", analyzer.String(string(s.StorageTier))).
			Set("start_time", timeValue(s.StartTime)))
	}
	rec.Summary.
		Set("total_snapshots", analyzer.Int(len(snapshots))).
		Set("total_snapshot_gib", analyzer.Int(snapshotGiB))
	return rec, nil
}

func (a *BlockStorageAnalyzer) listVolumes(ctx context.Context) ([]ec2types.Volume, error) {
	var volumes []ec2types.Volume
	paginator := ec2.NewDescribeVolumesPaginator(a.client, &ec2.DescribeVolumesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		volumes = append(volumes, page.Volumes...)
	}
	return volumes, nil
}

// listSnapshots returns snapshots owned by the account; public and shared
// snapshots are not billed to it.
func (a *BlockStorageAnalyzer) listSnapshots(ctx context.Context) ([]ec2types.Snapshot, error) {
	var snapshots []ec2types.Snapshot
	paginator := ec2.NewDescribeSnapshotsPaginator(a.client, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, page.Snapshots...)
	}
	return snapshots, nil
}
