package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/mote/vm"
)

// writeConfigFile writes a motectl.toml descriptor into dir and returns its
// absolute path.
func writeConfigFile(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "motectl.toml")
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
	return p
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
[image]
snapshot = "out.snapshot"
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Image.BytecodeSize != 256 {
		t.Errorf("Image.BytecodeSize = %d, want default 256", cfg.Image.BytecodeSize)
	}
	if cfg.Image.Snapshot != "out.snapshot" {
		t.Errorf("Image.Snapshot = %q, want %q", cfg.Image.Snapshot, "out.snapshot")
	}
	if cfg.Demo.ArrayLen != 4 {
		t.Errorf("Demo.ArrayLen = %d, want default 4", cfg.Demo.ArrayLen)
	}
	if cfg.Demo.StackLen != 32 {
		t.Errorf("Demo.StackLen = %d, want default 32", cfg.Demo.StackLen)
	}
}

func TestLoadConfig_ErrorOnMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err == nil {
		t.Fatal("expected error loading nonexistent config, got nil")
	}
}

func TestLoadConfig_ErrorOnMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "this is not [ valid toml")

	_, err := loadConfig(path)
	if err == nil {
		t.Fatal("expected error parsing malformed TOML, got nil")
	}
}

func TestBuildDemoGraph_ReachesEveryShapeFromRoots(t *testing.T) {
	program := vm.NewProgram(make([]byte, 256))
	classes := registerDemoClasses(program)
	process := vm.NewProcess(program)

	cfg := &Config{}
	cfg.Demo.ArrayLen = 3
	cfg.Demo.StackLen = 16
	cfg.Demo.StringContent = "demo graph"

	roots, err := buildDemoGraph(process, classes, cfg)
	if err != nil {
		t.Fatalf("buildDemoGraph failed: %v", err)
	}
	if len(roots) != 4 {
		t.Fatalf("len(roots) = %d, want 4", len(roots))
	}

	counts := countShapes(process.Heap(), program, roots)
	for _, tag := range []vm.ClassTag{vm.TagArray, vm.TagString, vm.TagByteArray, vm.TagTask, vm.TagStack} {
		if counts[tag] == 0 {
			t.Errorf("countShapes has no %v objects, want at least 1", tag)
		}
	}
}

func TestBuildAndInspect_RoundTripsSnapshotToDisk(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "roundtrip.snapshot")

	cfg := &Config{}
	cfg.Image.BytecodeSize = 256
	cfg.Image.Snapshot = snapshotPath
	cfg.Demo.ArrayLen = 2
	cfg.Demo.StackLen = 16
	cfg.Demo.StringContent = "round trip"

	if err := runBuild(cfg); err != nil {
		t.Fatalf("runBuild failed: %v", err)
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		t.Fatalf("snapshot file not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("snapshot file is empty")
	}

	if err := runInspect(cfg); err != nil {
		t.Fatalf("runInspect failed: %v", err)
	}
}

func TestRunInspect_ErrorOnMissingSnapshot(t *testing.T) {
	cfg := &Config{}
	cfg.Image.BytecodeSize = 256
	cfg.Image.Snapshot = filepath.Join(t.TempDir(), "missing.snapshot")

	if err := runInspect(cfg); err == nil {
		t.Fatal("expected error inspecting a missing snapshot, got nil")
	}
}
