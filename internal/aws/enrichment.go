package aws

import (
	"context"
	"sort"
	"strings"

	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// unknownClass buckets resources that report no class at all.
const unknownClass = "unknown"

// ClassRule derives a canonical instance type from a service-specific class
// name by removing a known prefix or suffix.
type ClassRule struct {
	Prefixes []string
	Suffixes []string
}

var (
	// ruleInstanceType leaves EC2 instance types untouched.
	ruleInstanceType = ClassRule{}
	// ruleDBClass maps "db.r6g.large" to "r6g.large".
	ruleDBClass = ClassRule{Prefixes: []string{"db."}}
	// ruleCacheNode maps "cache.m5.large" to "m5.large".
	ruleCacheNode = ClassRule{Prefixes: []string{"cache."}}
	// ruleSearchNode maps "m5.large.search" and "m5.large.elasticsearch" to "m5.large".
	ruleSearchNode = ClassRule{Suffixes: []string{".search", ".elasticsearch"}}
)

// Canonical returns the instance type name for class.
func (r ClassRule) Canonical(class string) string {
	c := strings.TrimSpace(class)
	if c == "" {
		return unknownClass
	}
	for _, p := range r.Prefixes {
		if strings.HasPrefix(c, p) {
			c = strings.TrimPrefix(c, p)
			break
		}
	}
	for _, s := range r.Suffixes {
		if strings.HasSuffix(c, s) {
			c = strings.TrimSuffix(c, s)
			break
		}
	}
	return c
}

// ClassTotals is the aggregate for one canonical type. When Resolved is
// false the spec is zero and the class contributes only to counts.
type ClassTotals struct {
	Type     string
	Count    int
	Spec     TypeSpec
	Resolved bool
}

// VCPUTotal is the vCPU of every resource of this class combined.
func (c ClassTotals) VCPUTotal() int {
	return c.Spec.VCPU * c.Count
}

// MemoryMiBTotal is the memory of every resource of this class combined.
func (c ClassTotals) MemoryMiBTotal() int {
	return c.Spec.MemoryMiB * c.Count
}

// Enrichment holds per-class and grand totals for one analyzer run.
type Enrichment struct {
	Classes        []ClassTotals
	TotalCount     int
	TotalVCPU      int
	TotalMemoryMiB int
	Unresolved     []string

	rule       ClassRule
	resolution Resolution
}

// Enrich resolves the classes in counts (raw class name to resource count)
// through the catalog and aggregates capacity. Unresolved classes count
// toward TotalCount with a zero spec.
func Enrich(ctx context.Context, catalog *Catalog, rule ClassRule, counts map[string]int) Enrichment {
	canonical := make(map[string]int, len(counts))
	for class, n := range counts {
		canonical[rule.Canonical(class)] += n
	}

	ids := make([]string, 0, len(canonical))
	for id := range canonical {
		if id != unknownClass {
			ids = append(ids, id)
		}
	}

	e := Enrichment{rule: rule}
	if len(ids) > 0 {
		e.resolution = catalog.Resolve(ctx, ids)
	}

	types := make([]string, 0, len(canonical))
	for id := range canonical {
		types = append(types, id)
	}
	sort.Strings(types)

	for _, id := range types {
		ct := ClassTotals{Type: id, Count: canonical[id]}
		if spec, ok := e.resolution.Lookup(id); ok {
			ct.Spec = spec
			ct.Resolved = true
		} else {
			e.Unresolved = append(e.Unresolved, id)
		}

		e.Classes = append(e.Classes, ct)
		e.TotalCount += ct.Count
		e.TotalVCPU += ct.VCPUTotal()
		e.TotalMemoryMiB += ct.MemoryMiBTotal()
	}
	return e
}

// SpecFor returns the spec for a raw class name and whether it resolved.
func (e Enrichment) SpecFor(class string) (string, TypeSpec, bool) {
	id := e.rule.Canonical(class)
	spec, ok := e.resolution.Lookup(id)
	return id, spec, ok
}

// WriteSummary adds the capacity totals and per-type breakdown to m.
func (e Enrichment) WriteSummary(m *analyzer.Map) {
	byType := analyzer.NewMap()
	for _, c := range e.Classes {
		byType.Set(c.Type, analyzer.NewMap().
			Set("count", analyzer.Int(c.Count)).
			Set("vCPU_each", analyzer.Int(c.Spec.VCPU)).
			Set("memory_mib_each", analyzer.Int(c.Spec.MemoryMiB)).
			Set("vCPU_total", analyzer.Int(c.VCPUTotal())).
			Set("memory_mib_total", analyzer.Int(c.MemoryMiBTotal())).
			Set("resolved", analyzer.Bool(c.Resolved)))
	}

	m.Set("total_vCPU", analyzer.Int(e.TotalVCPU))
	m.Set("total_memory_mib", analyzer.Int(e.TotalMemoryMiB))
	m.Set("by_instance_type", byType)
	if len(e.Unresolved) > 0 {
		unresolved := make(analyzer.List, 0, len(e.Unresolved))
		for _, id := range e.Unresolved {
			unresolved = append(unresolved, analyzer.String(id))
		}
		m.Set("unresolved_types", unresolved)
	}
}
