//go:build windows

package storage

import (
	"github.com/cuemby/ksm/pkg/log"
)

// hardenPermissions would restrict the config file ACL to Administrators,
// SYSTEM and the current user. Windows ACL manipulation is not wired up
// yet; the file inherits the directory ACL.
// TODO: set an explicit DACL once the SDK grows a windows CI leg.
func hardenPermissions(path string) error {
	logger := log.WithComponent(component)
	logger.Debug().
		Str("path", path).
		Msg("skipping ACL hardening on windows")
	return nil
}

func checkPermissions(path string) {}
