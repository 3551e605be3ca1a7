package service

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/aussiebroadwan/tenauth/pkg/slogx"
	"github.com/go-ldap/ldap/v3"
)

const defaultDirectoryTimeout = 10 * time.Second

// DirectoryBindStrategy verifies a password by performing a live bind
// against the tenant's configured LDAP directory. No hash comparison
// happens: a successful bind IS the verification result. Nothing is stored.
//
// Dial and bind failures are authentication failures (false, nil), never
// system faults: an unreachable directory must not 500 a sign-in. A missing
// directory configuration, on the other hand, is a deployment error.
type DirectoryBindStrategy struct{}

func (DirectoryBindStrategy) Verify(ctx context.Context, _ string, supplied string, ac AuthContext) (bool, error) {
	log := slogx.FromContext(ctx)

	if ac.Directory == nil {
		return false, fmt.Errorf("%w: directory bind requested without directory config", ErrUnknownAlgorithm)
	}
	// LDAP treats an empty bind password as an anonymous bind, which would
	// "succeed" for any user. Reject up front.
	if supplied == "" || ac.FullName == "" {
		return false, nil
	}

	d := ac.Directory
	timeout := d.DialTimeout
	if timeout <= 0 {
		timeout = defaultDirectoryTimeout
	}

	conn, err := ldap.DialURL(d.URL, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		log.Info("directory dial failed", "directory", d.Name, "err", err)
		return false, nil
	}
	// The bind connection is a scoped resource: closed on every exit path.
	defer conn.Close()

	conn.SetTimeout(timeout)

	dn := fmt.Sprintf(d.UserDNPattern, ldap.EscapeDN(ac.FullName)) + "," + d.BaseDN
	if err := conn.Bind(dn, supplied); err != nil {
		log.Info("directory bind rejected", "directory", d.Name, "dn", dn)
		return false, nil
	}

	return true, nil
}
