package gpio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSysfsPin_SetAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	p := NewSysfsPin(path, false)

	if err := p.Set(true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "1" {
		t.Errorf("file: got %q, want 1", data)
	}
	high, err := p.Read()
	if err != nil || !high {
		t.Errorf("Read: got %v, %v", high, err)
	}
}

func TestSysfsPin_ActiveLow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	p := NewSysfsPin(path, true)

	if err := p.Set(true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "0" {
		t.Errorf("file: got %q, want 0", data)
	}
	if err := os.WriteFile(path, []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	high, err := p.Read()
	if err != nil || high {
		t.Errorf("Read: got %v, %v, want false", high, err)
	}
}

func TestSysfsPin_MissingFile(t *testing.T) {
	p := NewSysfsPin(filepath.Join(t.TempDir(), "nope", "value"), false)
	if _, err := p.Read(); err == nil {
		t.Error("expected read error")
	}
	if err := p.Set(true); err == nil {
		t.Error("expected write error")
	}
}
