package analyzer

import (
	"context"
	"testing"
)

type stubAnalyzer struct {
	kind Kind
}

func (s *stubAnalyzer) Kind() Kind { return s.kind }

func (s *stubAnalyzer) Analyze(_ context.Context, includeDetails bool) (*Record, error) {
	r := NewRecord(includeDetails)
	r.Summary.Set("total", Int(0))
	return r, nil
}

func stubFactory(kind Kind) Factory {
	return func() Analyzer { return &stubAnalyzer{kind: kind} }
}

func TestRegistry_ResolveIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry()
	reg.Register("Amazon Simple Storage Service", stubFactory(KindObjectStore))

	for _, token := range []string{"Amazon Simple Storage Service", "amazon simple storage service", "AMAZON SIMPLE STORAGE SERVICE"} {
		f, ok := reg.Resolve(token)
		if !ok {
			t.Fatalf("expected %q to resolve", token)
		}
		if f().Kind() != KindObjectStore {
			t.Fatalf("expected object-store analyzer for %q", token)
		}
	}
}

func TestRegistry_AliasesShareAnalyzer(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAll([]string{"Amazon S3", "Amazon Simple Storage Service"}, stubFactory(KindObjectStore))

	a, okA := reg.Resolve("Amazon S3")
	b, okB := reg.Resolve("amazon simple storage service")
	if !okA || !okB {
		t.Fatal("expected both aliases to resolve")
	}
	if a().Kind() != b().Kind() {
		t.Fatal("expected aliases to build the same analyzer kind")
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 tokens, got %d", reg.Len())
	}
}

func TestRegistry_LastWriteWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register("Amazon EC2", stubFactory(KindCompute))
	reg.Register("AMAZON EC2", stubFactory(KindBlockStorage))

	f, ok := reg.Resolve("amazon ec2")
	if !ok {
		t.Fatal("expected token to resolve")
	}
	if f().Kind() != KindBlockStorage {
		t.Fatalf("expected last registration to win, got %s", f().Kind())
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 token, got %d", reg.Len())
	}
}

func TestRegistry_UnknownToken(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Resolve("Tax"); ok {
		t.Fatal("expected unknown token to be absent")
	}
}

func TestRegistry_TokensSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register("B", stubFactory(KindDNS))
	reg.Register("a", stubFactory(KindDNS))

	tokens := reg.Tokens()
	if len(tokens) != 2 || tokens[0] != "a" || tokens[1] != "b" {
		t.Fatalf("expected [a b], got %v", tokens)
	}
}
