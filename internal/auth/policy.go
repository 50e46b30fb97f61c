package auth

import "blog/internal/models"

// Decision is the outcome of an access check. The two allow variants record
// which rule granted access; callers that only need yes/no use Allowed.
type Decision uint8

const (
	Deny Decision = iota
	AllowOwner
	AllowAdmin
)

func (d Decision) Allowed() bool { return d != Deny }

func (d Decision) String() string {
	switch d {
	case AllowOwner:
		return "allow:owner"
	case AllowAdmin:
		return "allow:admin"
	}
	return "deny"
}

// CanModify decides whether the caller may update or delete a resource
// owned by ownerID. Ownership is checked before role.
func CanModify(callerID int64, callerRole models.Role, ownerID int64) Decision {
	if callerID == ownerID {
		return AllowOwner
	}
	return adminOnly(callerRole)
}

// CanListAll decides whether the caller may enumerate every user.
func CanListAll(callerRole models.Role) Decision {
	return adminOnly(callerRole)
}

func adminOnly(role models.Role) Decision {
	switch role {
	case models.RoleAdmin:
		return AllowAdmin
	case models.RoleUser:
		return Deny
	}
	return Deny
}
