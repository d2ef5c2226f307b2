package container

import (
	"context"
	"testing"
)

// NewManager only constructs the client; it does not contact the daemon, so
// these tests run without Docker available.

func TestNewManager(t *testing.T) {
	mgr, err := NewManager("build-net", true)
	if err != nil {
		t.Fatalf("NewManager() returned error: %v", err)
	}
	defer mgr.Close()

	if mgr.NetworkID() != "build-net" {
		t.Errorf("NetworkID() = %q, want %q", mgr.NetworkID(), "build-net")
	}
	if !mgr.SkipPull() {
		t.Error("SkipPull() = false, want true")
	}
}

func TestNewManagerDefaults(t *testing.T) {
	mgr, err := NewManager("", false)
	if err != nil {
		t.Fatalf("NewManager() returned error: %v", err)
	}
	defer mgr.Close()

	if mgr.NetworkID() != "" {
		t.Errorf("NetworkID() = %q, want empty", mgr.NetworkID())
	}
	if mgr.SkipPull() {
		t.Error("SkipPull() = true, want false")
	}
}

func TestPullImageSkipped(t *testing.T) {
	mgr, err := NewManager("", true)
	if err != nil {
		t.Fatalf("NewManager() returned error: %v", err)
	}
	defer mgr.Close()

	// With skip-pull set, no daemon round trip happens at all.
	if err := mgr.PullImage(context.Background(), "example/builder:latest"); err != nil {
		t.Errorf("PullImage() with skip-pull returned error: %v", err)
	}
}
