package stitch

import (
	"fmt"
	"path/filepath"
)

// Version of the stitching library.
const Version = "0.1.0"

const (
	Kilo = 1 << 10
	Mega = 1 << 20
	Giga = 1 << 30
	Tera = 1 << 40
)

// ConvertToAbsolute converts a relative path to an absolute path
// using the given directory as the base.
func ConvertToAbsolute(path string, configDir string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	absPath := filepath.Join(configDir, path)
	if !filepath.IsAbs(absPath) {
		return absPath, fmt.Errorf("unable to convert %q to absolute path", path)
	}
	return absPath, nil
}
