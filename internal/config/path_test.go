package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDataDirXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != filepath.Join("/custom/data", "microlog") {
		t.Fatalf("DefaultDataDir() = %s", got)
	}
}

func TestDefaultDataDirPlatforms(t *testing.T) {
	tests := []struct {
		name   string
		mkdirs []string
		want   []string
	}{
		{name: "bare home", want: []string{".microlog"}},
		{name: "macos", mkdirs: []string{"Library"}, want: []string{"Library", "Application Support", "microlog"}},
		{name: "windows", mkdirs: []string{"AppData"}, want: []string{"AppData", "Local", "microlog"}},
		{name: "xdg default", mkdirs: []string{filepath.Join(".local", "share")}, want: []string{".local", "share", "microlog"}},
		{name: "macos wins over xdg", mkdirs: []string{"Library", filepath.Join(".local", "share")}, want: []string{"Library", "Application Support", "microlog"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("XDG_DATA_HOME", "")
			t.Setenv("HOME", home)
			t.Setenv("USERPROFILE", home)
			for _, d := range tt.mkdirs {
				if err := os.MkdirAll(filepath.Join(home, d), 0o755); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
			}
			want := filepath.Join(append([]string{home}, tt.want...)...)
			if got := DefaultDataDir(); got != want {
				t.Fatalf("DefaultDataDir() = %s, want %s", got, want)
			}
		})
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "")
	t.Setenv("USERPROFILE", "")
	if got := DefaultDataDir(); got != "./data" {
		t.Fatalf("DefaultDataDir() = %s, want ./data", got)
	}
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !isDir(dir) {
		t.Error("temp dir not reported as dir")
	}
	if isDir(file) {
		t.Error("file reported as dir")
	}
	if isDir(filepath.Join(dir, "missing")) {
		t.Error("missing path reported as dir")
	}
}
