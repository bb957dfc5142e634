package account

import "github.com/ILLGrenoble/webx-router/errors"

// UnimplementedPAM is the default PAM collaborator. The real libpam
// integration is named only by its interface contract and is explicitly
// out of scope per spec §1 ("the PAM integration library ... treated as
// an opaque authenticator"); this stub lets the router start and wire its
// dependents without fabricating a binding. Callers that need real
// authentication inject their own PAM implementation.
type UnimplementedPAM struct{}

// Authenticate always fails.
func (UnimplementedPAM) Authenticate(service, username, password string) ([]EnvVar, error) {
	return nil, errors.Authentication(errors.New("pam integration not configured"), service)
}
