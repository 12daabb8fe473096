package roles

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestLoadBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.json")
	payload := `{
		"🎮": {"name": "Gamer", "role_id": "r1", "channel_id": "c1", "message_id": "m1", "counted": true},
		"modders": {"name": "Modder", "role_id": "r2", "channel_id": "c1", "message_id": "m1", "emoji_id": "e2"}
	}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	bindings, err := LoadBindings(path)
	if err != nil {
		t.Fatalf("load bindings: %v", err)
	}
	if len(bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(bindings))
	}
	if bindings["🎮"].RoleID != "r1" || !bindings["🎮"].Counted {
		t.Fatalf("unexpected binding: %+v", bindings["🎮"])
	}
	if bindings["modders"].EmojiID != "e2" {
		t.Fatalf("expected custom emoji id, got %+v", bindings["modders"])
	}
}

func TestLoadBindingsMissingFile(t *testing.T) {
	if _, err := LoadBindings(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMatch(t *testing.T) {
	module := New(Bindings{
		"🎮": {Name: "Gamer", RoleID: "r1", MessageID: "m1"},
		"⭐": {Name: "Star", RoleID: "r2"},
	}, zap.NewNop())

	if _, ok := module.match("🎮", "m1"); !ok {
		t.Fatalf("expected match on the bound message")
	}
	if _, ok := module.match("🎮", "m2"); ok {
		t.Fatalf("bound message mismatch must not match")
	}
	if _, ok := module.match("⭐", "anything"); !ok {
		t.Fatalf("binding without message id should match any message")
	}
	if _, ok := module.match("❓", "m1"); ok {
		t.Fatalf("unknown emoji must not match")
	}
}
