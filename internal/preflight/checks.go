package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"micrec/internal/captureerr"
	"micrec/internal/deps"
)

const encoderCheckTimeout = 10 * time.Second

// CheckEncoder verifies that an ffmpeg binary can be located and runs.
func CheckEncoder(ctx context.Context, customPath string) Result {
	const name = "FFmpeg"

	checkCtx, cancel := context.WithTimeout(ctx, encoderCheckTimeout)
	defer cancel()

	avail, err := deps.CheckEncoder(checkCtx, customPath)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%v (%s)", err, captureerr.Hint(err))}
	}
	detail := avail.Path
	if avail.Version != "" {
		detail = fmt.Sprintf("%s (version %s, %s)", avail.Path, avail.Version, avail.Source)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "(error: not configured)"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
