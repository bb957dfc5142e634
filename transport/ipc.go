package transport

import (
	"os"

	"github.com/ILLGrenoble/webx-router/errors"
)

// securizeIPC chowns path to uid:gid and restricts it to mode 0700, so
// only the service account that owns spawned engines can connect, per
// spec §4.7/§4.8 and §5.
func securizeIPC(path string, uid, gid uint32) error {
	if err := os.Chown(path, int(uid), int(gid)); err != nil {
		return errors.Transport(err, "chown ipc socket "+path)
	}
	if err := os.Chmod(path, 0o700); err != nil {
		return errors.Transport(err, "chmod ipc socket "+path)
	}
	return nil
}
