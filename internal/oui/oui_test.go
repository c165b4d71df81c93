package oui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
)

func mustMAC(t *testing.T, raw string) model.MAC {
	t.Helper()
	mac, err := model.ParseMAC(raw)
	if err != nil {
		t.Fatalf("ParseMAC(%q): %v", raw, err)
	}
	return mac
}

func TestLoadJSONAndLookup(t *testing.T) {
	db, err := Load([]byte(`{"3C22FB":"Apple","00-11-22":"Cimsys"}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := db.Lookup(mustMAC(t, "3c:22:fb:11:22:33")); got != "Apple" {
		t.Fatalf("Lookup = %q, want %q", got, "Apple")
	}
	if got := db.Lookup(mustMAC(t, "00:11:22:33:44:55")); got != "Cimsys" {
		t.Fatalf("Lookup = %q, want %q", got, "Cimsys")
	}
	if got := db.Lookup(mustMAC(t, "00:99:88:77:66:55")); got != Unknown {
		t.Fatalf("Lookup = %q, want %q", got, Unknown)
	}
}

func TestLoadJSONRejectsBadPrefix(t *testing.T) {
	if _, err := Load([]byte(`{"3C22":"Short"}`)); err == nil {
		t.Fatal("expected error for short prefix")
	}
}

func TestLoadText(t *testing.T) {
	data := []byte(`# comment
00-11-22   (hex)		CIMSYS Inc
3C:22:FB	Apple	Apple, Inc.
00:1B:C5:00:00/36	Convergi	Converging Systems Inc.
garbage
`)
	db, err := Load(data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if db.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", db.Len())
	}
	if got := db.Lookup(mustMAC(t, "00:11:22:00:00:01")); got != "CIMSYS Inc" {
		t.Fatalf("Lookup = %q, want %q", got, "CIMSYS Inc")
	}
	if got := db.Lookup(mustMAC(t, "3c:22:fb:00:00:01")); got != "Apple Apple, Inc." {
		t.Fatalf("Lookup = %q, want %q", got, "Apple Apple, Inc.")
	}
}

func TestLookupRandomized(t *testing.T) {
	db, err := Load([]byte(`{"DAA119":"Never"}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := db.Lookup(mustMAC(t, "da:a1:19:00:00:02")); got != Randomized {
		t.Fatalf("Lookup = %q, want %q", got, Randomized)
	}
}

func TestLoadFile(t *testing.T) {
	empty, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile(\"\"): %v", err)
	}
	if got := empty.Lookup(mustMAC(t, "3c:22:fb:00:00:01")); got != Unknown {
		t.Fatalf("Lookup = %q, want %q", got, Unknown)
	}

	path := filepath.Join(t.TempDir(), "oui.json")
	if err := os.WriteFile(path, []byte(`{"3C22FB":"Apple"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	db, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := db.Lookup(mustMAC(t, "3c:22:fb:00:00:01")); got != "Apple" {
		t.Fatalf("Lookup = %q, want %q", got, "Apple")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
