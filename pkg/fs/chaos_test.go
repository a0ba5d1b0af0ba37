package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func Test_Chaos_Passes_Through_When_All_Rates_Are_Zero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")

	chaosFS := NewChaos(NewReal(), ChaosConfig{})

	f, err := chaosFS.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteAt([]byte("hello"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	buf := make([]byte, 5)
	if _, err := f.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}

	if string(buf) != "hello" {
		t.Fatalf("got %q, want %q", buf, "hello")
	}

	if err := f.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func Test_Chaos_Injects_Read_Failures_At_Configured_Rate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")

	chaosFS := NewChaos(NewReal(), ChaosConfig{ReadFailRate: 1.0, Seed: 1})

	f, err := chaosFS.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 5)
	_, err = f.ReadAt(buf, 0)
	if err == nil {
		t.Fatalf("expected injected read error, got nil")
	}
}

func Test_Chaos_Injects_Write_Failures_At_Configured_Rate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")

	chaosFS := NewChaos(NewReal(), ChaosConfig{WriteFailRate: 1.0, Seed: 1})

	f, err := chaosFS.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	_, err = f.WriteAt([]byte("x"), 0)
	if err == nil {
		t.Fatalf("expected injected write error, got nil")
	}
}

func Test_Chaos_Injects_Short_Writes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")

	chaosFS := NewChaos(NewReal(), ChaosConfig{ShortWriteRate: 1.0, Seed: 1})

	f, err := chaosFS.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	n, err := f.WriteAt([]byte("hello world"), 0)
	if !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("err=%v, want io.ErrShortWrite", err)
	}

	if n >= 11 {
		t.Fatalf("n=%d, want a short write", n)
	}
}

func Test_Chaos_Injects_Sync_Failures_At_Configured_Rate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")

	chaosFS := NewChaos(NewReal(), ChaosConfig{SyncFailRate: 1.0, Seed: 1})

	f, err := chaosFS.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if err := f.Sync(); err == nil {
		t.Fatalf("expected injected sync error, got nil")
	}
}

func Test_Chaos_Injects_Open_Failures_At_Configured_Rate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")

	chaosFS := NewChaos(NewReal(), ChaosConfig{OpenFailRate: 1.0, Seed: 1})

	_, err := chaosFS.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err == nil {
		t.Fatalf("expected injected open error, got nil")
	}
}

func Test_Chaos_Never_Masks_Real_NotExist_Errors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.bin")

	chaosFS := NewChaos(NewReal(), ChaosConfig{})

	_, err := chaosFS.OpenFile(path, os.O_RDONLY, 0)
	if !os.IsNotExist(err) {
		t.Fatalf("err=%v, want IsNotExist", err)
	}
}
