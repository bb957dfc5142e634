package account

import (
	"os"
	"os/user"
	"strconv"
	"syscall"

	"github.com/ILLGrenoble/webx-router/errors"
)

// ownerUsername returns the username that owns path, used by the
// credentials-file authentication path to derive the real account from
// the file's owner uid rather than trust a caller-supplied name.
func ownerUsername(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Io(err, "stat "+path)
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", errors.System(errors.New("unsupported platform for owner lookup"), path)
	}
	u, err := user.LookupId(strconv.FormatUint(uint64(stat.Uid), 10))
	if err != nil {
		return "", errors.Authentication(err, "lookup owner of "+path)
	}
	return u.Username, nil
}
