package domain

import dErrors "safedesk/pkg/domain-errors"

// Role is the portal role carried by an authenticated reviewer session.
// Anonymous reporters have no role; they act through a case PIN.
type Role string

const (
	RoleCommittee Role = "icc"
	RoleAdmin     Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleCommittee || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}
