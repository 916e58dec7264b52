package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/troupelabs/troupe/pkg/core"
	trperrors "github.com/troupelabs/troupe/pkg/errors"
)

type stubWorker struct {
	name string
}

func (w *stubWorker) Name() string { return w.name }

func (w *stubWorker) Score(task string, rc *core.RoutingContext) float64 { return 0.5 }

func (w *stubWorker) Run(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext) (core.Result, error) {
	return core.Result{Worker: w.name, Output: "stub output"}, nil
}

func stubCtor(name string) Constructor {
	return func() core.Worker { return &stubWorker{name: name} }
}

func TestRegisterAndCreate(t *testing.T) {
	reg := New()
	if err := reg.Register("docs", stubCtor("docs")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	w, err := reg.Create("docs")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if w.Name() != "docs" {
		t.Fatalf("expected docs, got %s", w.Name())
	}

	// Each create returns a fresh instance.
	w2, _ := reg.Create("docs")
	if w == w2 {
		t.Fatal("expected a fresh instance per create")
	}
}

func TestDuplicateNameIsCaseInsensitive(t *testing.T) {
	reg := New()
	if err := reg.Register("Docs", stubCtor("docs")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	err := reg.Register("docs", stubCtor("docs"))
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if !trperrors.HasCode(err, trperrors.CodeDuplicateName) {
		t.Fatalf("expected DUPLICATE_NAME, got %v", err)
	}
}

func TestCreateUnknownListsRegistered(t *testing.T) {
	reg := New()
	for _, name := range []string{"writer", "docs", "coder"} {
		if err := reg.Register(name, stubCtor(name)); err != nil {
			t.Fatalf("register %s failed: %v", name, err)
		}
	}

	_, err := reg.Create("ghost")
	if err == nil {
		t.Fatal("expected create of unknown worker to fail")
	}
	if !trperrors.HasCode(err, trperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	for _, name := range []string{"coder", "docs", "writer"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("expected %s listed in error, got %q", name, err.Error())
		}
	}
}

func TestNamesSorted(t *testing.T) {
	reg := New()
	for _, name := range []string{"writer", "analyst", "docs"} {
		if err := reg.Register(name, stubCtor(name)); err != nil {
			t.Fatalf("register %s failed: %v", name, err)
		}
	}

	names := reg.Names()
	want := []string{"analyst", "docs", "writer"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected %s at %d, got %s", name, i, names[i])
		}
	}
}

func TestRejectsEmptyName(t *testing.T) {
	reg := New()
	if err := reg.Register("  ", stubCtor("")); err == nil {
		t.Fatal("expected empty name to be rejected")
	}
}
