package api

import (
	"net/http"
	"strings"

	"github.com/stacklok/toolhive-action-authz/pkg/authz"
)

const (
	// UserHeader carries the caller ID. The demo trusts it as-is; a real
	// deployment sets it from an authenticating proxy.
	UserHeader = "X-Authz-User"

	// RolesHeader carries the caller roles as a comma separated list
	RolesHeader = "X-Authz-Roles"
)

// PrincipalFromRequest reads the caller from the request headers
func PrincipalFromRequest(r *http.Request) authz.Principal {
	if r == nil {
		return authz.Principal{}
	}

	var roles []string
	for _, role := range strings.Split(r.Header.Get(RolesHeader), ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}

	return authz.Principal{
		ID:    strings.TrimSpace(r.Header.Get(UserHeader)),
		Roles: roles,
	}
}
