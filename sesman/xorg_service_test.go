package sesman

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ILLGrenoble/webx-router/config"
)

func TestXorgService_AllocateDisplay_FirstMissingWins(t *testing.T) {
	lockPath := t.TempDir()
	for _, n := range []int{10, 11} {
		f, err := os.Create(filepath.Join(lockPath, fmt.Sprintf(".X%d-lock", n)))
		if err != nil {
			t.Fatalf("create lock file: %v", err)
		}
		f.Close()
	}

	svc := NewXorgService(config.XorgConfig{LockPath: lockPath, DisplayOffset: 10}, 1000)
	display, err := svc.AllocateDisplay()
	if err != nil {
		t.Fatalf("AllocateDisplay() error = %v", err)
	}
	if display != 12 {
		t.Errorf("AllocateDisplay() = %d, want 12 (first missing lock file)", display)
	}
	if display < 10 {
		t.Errorf("AllocateDisplay() = %d, want >= display_offset (10)", display)
	}
}

func TestXorgService_AllocateDisplay_EmptyDirStartsAtOffset(t *testing.T) {
	svc := NewXorgService(config.XorgConfig{LockPath: t.TempDir(), DisplayOffset: 37}, 1000)
	display, err := svc.AllocateDisplay()
	if err != nil {
		t.Fatalf("AllocateDisplay() error = %v", err)
	}
	if display != 37 {
		t.Errorf("AllocateDisplay() = %d, want 37", display)
	}
}

