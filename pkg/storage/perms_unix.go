//go:build !windows

package storage

import (
	"os"

	"github.com/cuemby/ksm/pkg/kerr"
	"github.com/cuemby/ksm/pkg/log"
)

// hardenPermissions restricts the config file to owner read/write
func hardenPermissions(path string) error {
	if err := os.Chmod(path, 0600); err != nil {
		return kerr.Wrap(kerr.KindConfig, component, err, "failed to set config file permissions")
	}
	return nil
}

// checkPermissions warns when the file is readable beyond its owner
func checkPermissions(path string) {
	if skipModeWarningEnabled() {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm()&0077 != 0 {
		logger := log.WithComponent(component)
		logger.Warn().
			Str("path", path).
			Str("mode", info.Mode().Perm().String()).
			Msg("config file is accessible by other users; expected owner-only permissions")
	}
}
