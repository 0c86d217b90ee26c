// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFromBytes(t *testing.T) {
	source := []byte("syt_access_token")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	defer buffer.Close()

	if buffer.String() != "syt_access_token" {
		t.Errorf("unexpected contents: %q", buffer.String())
	}

	// The caller's slice is zeroed after the copy.
	for index, value := range source {
		if value != 0 {
			t.Fatalf("source byte %d not zeroed: %d", index, value)
		}
	}
}

func TestNewFromBytes_Empty(t *testing.T) {
	if _, err := NewFromBytes(nil); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestClose_Idempotent(t *testing.T) {
	buffer, err := NewFromString("token")
	if err != nil {
		t.Fatalf("NewFromString failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestClose_AccessPanics(t *testing.T) {
	buffer, err := NewFromString("token")
	if err != nil {
		t.Fatalf("NewFromString failed: %v", err)
	}
	buffer.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic reading closed buffer")
		}
	}()
	_ = buffer.Bytes()
}

func TestReadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  syt_token\n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	buffer, err := ReadFromPath(path)
	if err != nil {
		t.Fatalf("ReadFromPath failed: %v", err)
	}
	defer buffer.Close()

	if buffer.String() != "syt_token" {
		t.Errorf("expected trimmed token, got %q", buffer.String())
	}
}

func TestReadFromPath_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("writing empty file: %v", err)
	}
	if _, err := ReadFromPath(path); err == nil {
		t.Fatal("expected error for whitespace-only secret")
	}
}
