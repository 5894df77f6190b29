package settings

import (
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	r.Register(Definition{Key: "ui.theme", Type: TypeString, Default: "light", Visible: true})

	def, ok := r.Lookup("ui.theme")
	if !ok {
		t.Fatal("expected ui.theme to be registered")
	}
	if def.Default != "light" {
		t.Errorf("default = %v, want light", def.Default)
	}

	if _, ok := r.Lookup("nonexistent.key"); ok {
		t.Error("unregistered key should not resolve")
	}
}

func TestRegistryReRegisterOverwrites(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	r.Register(Definition{Key: "ui.theme", Type: TypeString, Default: "light"})
	r.Register(Definition{Key: "ui.theme", Type: TypeString, Default: "dark"})

	def, _ := r.Lookup("ui.theme")
	if def.Default != "dark" {
		t.Errorf("re-registration should overwrite, default = %v", def.Default)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistryIgnoresEmptyKey(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.Register(Definition{Key: "", Type: TypeString})
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestVisibleBySection(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	r.Register(Definition{Key: "ui.theme", Type: TypeString, Visible: true})
	r.Register(Definition{Key: "ui.compact", Type: TypeBoolean, Visible: true})
	r.Register(Definition{Key: "mail.digest", Type: TypeBoolean, Visible: true})
	r.Register(Definition{Key: "mail.internal", Type: TypeString, Visible: false})

	sections := r.VisibleBySection()
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(sections), sections)
	}

	// Sorted by key ascending, grouped by first dot-segment
	if sections[0].Name != "mail" || sections[1].Name != "ui" {
		t.Errorf("section order = %q, %q", sections[0].Name, sections[1].Name)
	}
	if len(sections[0].Definitions) != 1 {
		t.Errorf("mail section should hide invisible keys, got %d", len(sections[0].Definitions))
	}
	if sections[1].Definitions[0].Key != "ui.compact" || sections[1].Definitions[1].Key != "ui.theme" {
		t.Errorf("ui section keys out of order: %+v", sections[1].Definitions)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.Register(Definition{Key: "ui.theme", Type: TypeString, Default: "light", Visible: true})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Register(Definition{Key: "ui.theme", Type: TypeString, Default: "dark", Visible: true})
			if _, ok := r.Lookup("ui.theme"); !ok {
				t.Error("lookup failed during concurrent registration")
			}
			r.VisibleBySection()
		}()
	}
	wg.Wait()
}
