package account

import (
	"os"
	"strings"

	"github.com/ILLGrenoble/webx-router/errors"
)

// PAM is the opaque PAM-like collaborator contract named by spec §1:
// "the PAM integration library (treated as an opaque 'authenticator'
// returning an environment list)". Its concrete implementation (a cgo
// binding onto libpam) lives outside this module's scope; callers inject
// whatever satisfies this interface, including a fake for tests.
type PAM interface {
	// Authenticate validates username/password against the named PAM
	// service and returns the environment PAM assembled for the session.
	Authenticate(service, username, password string) ([]EnvVar, error)
}

// Authenticator implements spec §4.4: direct PAM authentication, or a
// credentials-file indirection that re-authenticates the resolved
// username against the "su" PAM service.
type Authenticator struct {
	pam            PAM
	directService  string
	suService      string
}

// NewAuthenticator builds an Authenticator. directService is the PAM
// service used for ordinary (non credentials-file) logins; the
// credentials-file path always re-authenticates via "su" per spec §4.4.
func NewAuthenticator(pam PAM, directService string) *Authenticator {
	return &Authenticator{pam: pam, directService: directService, suService: "su"}
}

// Authenticate resolves the two paths described in spec §4.4. When
// username begins with "/" it is treated as a path to a credentials file;
// otherwise it authenticates directly via PAM.
func (a *Authenticator) Authenticate(username, password string) (*AuthenticatedSession, error) {
	if strings.HasPrefix(username, "/") {
		return a.authenticateViaCredentialsFile(username, password)
	}
	return a.authenticateDirect(username, password)
}

func (a *Authenticator) authenticateDirect(username, password string) (*AuthenticatedSession, error) {
	acct, err := Lookup(username)
	if err != nil {
		return nil, errors.Authentication(err, "resolve account")
	}
	env, err := a.pam.Authenticate(a.directService, username, password)
	if err != nil {
		return nil, errors.Authentication(err, "pam authenticate")
	}
	return &AuthenticatedSession{Account: acct, Environment: env}, nil
}

// authenticateViaCredentialsFile implements spec §4.4's credentials-file
// path: the file's permission bits gate trust, its owning uid names the
// real account, and its contents (trailing newline stripped) must match
// the supplied password before a "su" re-authentication is attempted.
//
// SPEC_FULL.md supplements this with an extra check (grounded on
// original_source/src/authentication/credentials.rs): the file's parent
// directory must not be world-writable either, since a writable parent
// lets an attacker replace the file wholesale regardless of its own mode.
func (a *Authenticator) authenticateViaCredentialsFile(path, password string) (*AuthenticatedSession, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Authentication(err, "stat credentials file")
	}
	if info.Mode().Perm()&0o066 != 0 {
		return nil, errors.Authentication(errors.Newf("insecure mode %o on %s", info.Mode().Perm(), path), "credentials file")
	}

	dir := parentDir(path)
	if dirInfo, err := os.Stat(dir); err == nil && dirInfo.Mode().Perm()&0o002 != 0 {
		return nil, errors.Authentication(errors.Newf("world-writable parent directory %s", dir), "credentials file")
	}

	realUsername, err := ownerUsername(path)
	if err != nil {
		return nil, errors.Authentication(err, "resolve credentials file owner")
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Authentication(err, "read credentials file")
	}
	expected := strings.TrimSuffix(string(contents), "\n")
	if expected != password {
		return nil, errors.Authentication(errors.New("password mismatch"), "credentials file")
	}

	acct, err := Lookup(realUsername)
	if err != nil {
		return nil, errors.Authentication(err, "resolve account")
	}
	env, err := a.pam.Authenticate(a.suService, realUsername, password)
	if err != nil {
		return nil, errors.Authentication(err, "pam re-authenticate via su")
	}
	return &AuthenticatedSession{Account: acct, Environment: env}, nil
}

func parentDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}
