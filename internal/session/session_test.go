package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewAssignsUniqueIDs(t *testing.T) {
	a := New("u1", "u1@example.com", "free")
	b := New("u1", "u1@example.com", "free")

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
}

func TestFileTokenSourceReadsAndTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  tok-123\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	source := &FileTokenSource{Path: path}
	token, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "tok-123" {
		t.Fatalf("unexpected token: %q", token)
	}
}

func TestFileTokenSourceErrsOnMissingFile(t *testing.T) {
	source := &FileTokenSource{Path: filepath.Join(t.TempDir(), "nope")}
	if _, err := source.Token(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestStaticTokenSource(t *testing.T) {
	token, err := StaticTokenSource("fixed").Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "fixed" {
		t.Fatalf("unexpected token: %q", token)
	}
}
