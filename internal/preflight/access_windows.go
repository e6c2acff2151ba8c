//go:build windows

package preflight

import "os"

// Windows has no access(2); probe by creating and removing a file.
func checkAccess(path string) error {
	f, err := os.CreateTemp(path, ".micrec-access-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
