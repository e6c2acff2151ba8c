//go:build windows

package deps

import (
	"os"
	"path/filepath"
	"strings"
)

func isExecutable(path string, info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".exe", ".bat", ".cmd", ".com":
		return true
	default:
		return false
	}
}
