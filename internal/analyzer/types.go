package analyzer

import (
	"context"
	"encoding/json"
)

// Kind identifies the family of service an analyzer inspects.
type Kind string

const (
	KindCompute               Kind = "compute"
	KindRelationalStore       Kind = "relational-store"
	KindDocumentStore         Kind = "document-store"
	KindObjectStore           Kind = "object-store"
	KindCDN                   Kind = "cdn"
	KindKeyValueStore         Kind = "key-value-store"
	KindContainerRegistry     Kind = "container-registry"
	KindContainerOrchestrator Kind = "container-orchestrator"
	KindManagedKubernetes     Kind = "managed-kubernetes"
	KindNetworkFileStore      Kind = "network-file-store"
	KindLoadBalancer          Kind = "load-balancer"
	KindInMemoryCache         Kind = "in-memory-cache"
	KindSearchCluster         Kind = "search-cluster"
	KindDNS                   Kind = "dns"
	KindEmail                 Kind = "email"
	KindPubSub                Kind = "pub-sub"
	KindQueue                 Kind = "queue"
	KindCrossConnect          Kind = "cross-connect"
	KindKeyManagement         Kind = "key-management"
	KindBlockStorage          Kind = "block-storage"
	KindFunctionRuntime       Kind = "function-runtime"
	KindNetwork               Kind = "network"
	KindStream                Kind = "stream"
)

// Analyzer enumerates the resources behind one billed service.
//
// Analyze must fully paginate every listing it performs and always return a
// summary with at least a total count. Details are filled only when
// includeDetails is true. Failures of individual per-resource calls are
// reflected in the record; an error is returned only when the service as a
// whole cannot be inspected.
type Analyzer interface {
	Kind() Kind
	Analyze(ctx context.Context, includeDetails bool) (*Record, error)
}

// Record is the output of one analyzer run.
type Record struct {
	Summary *Map
	// Details is nil when details were not requested and non-nil (possibly
	// empty) when they were.
	Details List
}

// NewRecord returns a record with an empty summary. When includeDetails is
// set the details list is initialised so that "none found" serialises as [].
func NewRecord(includeDetails bool) *Record {
	r := &Record{Summary: NewMap()}
	if includeDetails {
		r.Details = List{}
	}
	return r
}

// AddDetail appends a per-resource entry when details are being collected.
func (r *Record) AddDetail(entry *Map) {
	if r.Details == nil {
		return
	}
	r.Details = append(r.Details, entry)
}

// DetailsRequested reports whether the record carries a details list.
func (r *Record) DetailsRequested() bool {
	return r.Details != nil
}

// MarshalJSON omits details when they were not requested.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := struct {
		Summary *Map  `json:"summary"`
		Details *List `json:"details,omitempty"`
	}{Summary: r.Summary}
	if out.Summary == nil {
		out.Summary = NewMap()
	}
	if r.Details != nil {
		d := r.Details
		out.Details = &d
	}
	return json.Marshal(out)
}
