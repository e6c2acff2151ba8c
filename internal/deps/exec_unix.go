//go:build !windows

package deps

import (
	"os"

	"golang.org/x/sys/unix"
)

func isExecutable(path string, info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}
