// Package account resolves OS accounts and authenticates credentials
// against an opaque PAM-like collaborator, per spec §3 "Account" /
// "Authenticated Session" and §4.4 "Authenticator".
package account

import (
	"os/user"
	"strconv"

	"github.com/ILLGrenoble/webx-router/errors"
)

// Account is an immutable, freely cloneable description of an OS user.
type Account struct {
	Username           string
	HomeDir            string
	Shell              string
	UID                uint32
	GID                uint32
	SupplementaryGIDs  []uint32
}

// EnvVar is one (name, value) pair in a PAM-produced environment. A slice
// of EnvVar (rather than a map) preserves the order PAM returned them in,
// matching spec §3's "ordered sequence of (name, value) pairs".
type EnvVar struct {
	Name  string
	Value string
}

// AuthenticatedSession is the result of a successful authentication: the
// resolved account plus the environment PAM produced for it. It is local
// to one create request; the router never persists it.
type AuthenticatedSession struct {
	Account     Account
	Environment []EnvVar
}

// Lookup resolves username against the OS user database, applying the
// spec §3 invariant that supplementary group 0 is filtered out for
// non-root users.
func Lookup(username string) (Account, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return Account{}, errors.Authentication(err, "lookup user "+username)
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return Account{}, errors.System(err, "parse uid")
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return Account{}, errors.System(err, "parse gid")
	}

	groupIDs, err := u.GroupIds()
	if err != nil {
		return Account{}, errors.System(err, "lookup supplementary groups")
	}
	supplementary := make([]uint32, 0, len(groupIDs))
	for _, g := range groupIDs {
		n, err := strconv.ParseUint(g, 10, 32)
		if err != nil {
			continue
		}
		if n == 0 && uid != 0 {
			continue
		}
		supplementary = append(supplementary, uint32(n))
	}

	shell := loginShell(u.Username)

	return Account{
		Username:          u.Username,
		HomeDir:           u.HomeDir,
		Shell:             shell,
		UID:               uint32(uid),
		GID:               uint32(gid),
		SupplementaryGIDs: supplementary,
	}, nil
}
