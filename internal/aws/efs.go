package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/efs"
	efstypes "github.com/aws/aws-sdk-go-v2/service/efs/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// EFSAPI is the minimal interface for EFS operations.
type EFSAPI interface {
	DescribeFileSystems(ctx context.Context, input *efs.DescribeFileSystemsInput, opts ...func(*efs.Options)) (*efs.DescribeFileSystemsOutput, error)
}

// EFSAnalyzer reports file systems grouped by throughput mode.
type EFSAnalyzer struct {
	client EFSAPI
}

// NewEFSAnalyzer creates an analyzer for EFS file systems.
func NewEFSAnalyzer(client EFSAPI) *EFSAnalyzer {
	return &EFSAnalyzer{client: client}
}

// Kind returns the kind of service this analyzer handles.
func (a *EFSAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindNetworkFileStore
}

// Analyze lists file systems with their metered size.
func (a *EFSAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var fss []efstypes.FileSystemDescription
	paginator := efs.NewDescribeFileSystemsPaginator(a.client, &efs.DescribeFileSystemsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list EFS file systems: %w", err)
		}
		fss = append(fss, page.FileSystems...)
	}

	type modeTotals struct {
		count int
		bytes int64
	}
	byMode := make(map[string]*modeTotals)
	var totalBytes int64

	rec := analyzer.NewRecord(includeDetails)
	for _, fs := range fss {
		var size int64
		if fs.SizeInBytes != nil {
			size = fs.SizeInBytes.Value
		}
		mode := orUnknown(string(fs.ThroughputMode))
		if byMode[mode] == nil {
			byMode[mode] = &modeTotals{}
		}
		byMode[mode].count++
		byMode[mode].bytes += size
		totalBytes += size

		rec.AddDetail(analyzer.NewMap().
			Set("file_system_id", analyzer.StringPtr(fs.FileSystemId)).
			Set("name", analyzer.StringPtr(fs.Name)).
			Set("creation_time", timeValue(fs.CreationTime)).
			Set("size_bytes", analyzer.Int(size)).
			Set("throughput_mode", analyzer.String(string(fs.ThroughputMode))).
			Set("performance_mode", analyzer.String(string(fs.PerformanceMode))).
			Set("state", analyzer.String(string(fs.LifeCycleState))))
	}

	modes := analyzer.NewMap()
	for _, mode := range sortedKeys(byMode) {
		modes.Set(mode, analyzer.NewMap().
			Set("count", analyzer.Int(byMode[mode].count)).
			Set("total_size_bytes", analyzer.Int(byMode[mode].bytes)))
	}

	rec.Summary.
		Set("total_file_systems", analyzer.Int(len(fss))).
		Set("total_size_bytes", analyzer.Int(totalBytes)).
		Set("by_throughput_mode", modes)
	return rec, nil
}
