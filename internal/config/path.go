package config

import (
	"os"
	"path/filepath"
)

const (
	appDirName      = "microlog"
	fallbackDataDir = "./data"
)

// platformDirs are tried in order under the home directory; the first
// whose marker exists wins.
var platformDirs = []struct {
	marker string
	dir    []string
}{
	{marker: "Library", dir: []string{"Library", "Application Support", appDirName}},
	{marker: "AppData", dir: []string{"AppData", "Local", appDirName}},
	{marker: filepath.Join(".local", "share"), dir: []string{".local", "share", appDirName}},
}

// DefaultDataDir returns where the record stores live when no data
// directory is configured. XDG_DATA_HOME wins; without a home directory it
// is ./data.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return fallbackDataDir
	}
	for _, p := range platformDirs {
		if isDir(filepath.Join(home, p.marker)) {
			return filepath.Join(append([]string{home}, p.dir...)...)
		}
	}
	return filepath.Join(home, "."+appDirName)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
