package security

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	inside := filepath.Join(dir, "frame-001.png")
	if err := os.WriteFile(inside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"file inside", inside, false},
		{"nonexistent inside", filepath.Join(dir, "frame-002.png"), false},
		{"nested inside", filepath.Join(dir, "sub", "frame.png"), false},
		{"parent escape", filepath.Join(dir, "..", "evil.png"), true},
		{"relative traversal", filepath.Join(dir, "a", "..", "..", "evil.png"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRejectsOutsideDirectory(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()

	if err := ValidatePathWithinDirectory(filepath.Join(other, "frame.png"), dir); err == nil {
		t.Error("expected a path in a sibling directory to be rejected")
	}
}

func TestValidateRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not supported on windows")
	}

	dir := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.png")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(dir, "link.png")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	if err := ValidatePathWithinDirectory(link, dir); err == nil {
		t.Error("expected symlink escaping the directory to be rejected")
	}
}
