// Package permission decides whether a user may act on a campaign or a
// character. Decisions are values: a failed check never panics and never
// returns a raw storage error to the caller.
package permission

import (
	"fmt"
	"strings"
)

// Role is a campaign membership role.
type Role string

// Membership roles, highest first.
const (
	RoleGamemaster Role = "GAMEMASTER"
	RolePlayer     Role = "PLAYER"
	RoleObserver   Role = "OBSERVER"
)

// Roles lists the known roles from highest to lowest.
var Roles = []Role{RoleGamemaster, RolePlayer, RoleObserver}

// Level returns the hierarchy level of r: 3 for GAMEMASTER, 2 for PLAYER,
// 1 for OBSERVER and 0 for anything else.
func (r Role) Level() int {
	switch r {
	case RoleGamemaster:
		return 3
	case RolePlayer:
		return 2
	case RoleObserver:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Level() > 0
}

// ParseRole resolves a role name case-insensitively.
//
// Postcondition: Returns a valid Role and true, or "" and false.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// Code is a machine-readable failure code.
type Code string

// Failure codes.
const (
	CodeNotCampaignMember       Code = "NOT_CAMPAIGN_MEMBER"
	CodeInsufficientPermissions Code = "INSUFFICIENT_PERMISSIONS"
	CodeCharacterNotFound       Code = "CHARACTER_NOT_FOUND"
	CodePermissionError         Code = "PERMISSION_ERROR"
)

// Decision is the outcome of a permission check.
//
// Invariant: Success implies Code == "", and !Success implies Code != "".
type Decision struct {
	Success bool   `json:"success"`
	Role    Role   `json:"role,omitempty"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Err converts a failed decision into an *Error, or nil on success.
func (d Decision) Err() error {
	if d.Success {
		return nil
	}
	return &Error{Code: d.Code, Message: d.Message}
}

func allow(role Role) Decision {
	return Decision{Success: true, Role: role}
}

func deny(code Code, format string, args ...any) Decision {
	return Decision{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error is a permission failure carried through error returns.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("permission denied (%s): %s", e.Code, e.Message)
}

// Membership is a user's membership record in a campaign.
type Membership struct {
	UserID     string
	CampaignID string
	Role       Role
	Active     bool
}

// Character is the ownership projection of a character record.
type Character struct {
	ID         string
	PlayerID   string
	CampaignID string
}

// CheckCampaignPermission decides whether the holder of m meets required.
//
// Postcondition:
//   - nil or inactive membership: CodeNotCampaignMember.
//   - a role outside the known hierarchy on record: CodePermissionError.
//   - a role below required: CodeInsufficientPermissions.
//   - otherwise success carrying the member's role.
func CheckCampaignPermission(m *Membership, required Role) Decision {
	if m == nil || !m.Active {
		return deny(CodeNotCampaignMember, "not a member of this campaign")
	}
	if !m.Role.Valid() {
		return deny(CodePermissionError, "membership has unrecognised role %q", m.Role)
	}
	if m.Role.Level() < required.Level() {
		return deny(CodeInsufficientPermissions, "requires %s role, have %s", required, m.Role)
	}
	return allow(m.Role)
}

// CheckCharacterPermission decides whether userID may modify c. The owner is
// always permitted; otherwise gm must be an active GAMEMASTER membership in
// the character's campaign.
//
// Postcondition: nil c yields CodeCharacterNotFound.
func CheckCharacterPermission(c *Character, userID string, gm *Membership) Decision {
	if c == nil {
		return deny(CodeCharacterNotFound, "character not found")
	}
	if c.PlayerID != "" && c.PlayerID == userID {
		return allow(RolePlayer)
	}
	if gm != nil && gm.Active && gm.UserID == userID && gm.CampaignID == c.CampaignID && gm.Role == RoleGamemaster {
		return allow(RoleGamemaster)
	}
	return deny(CodeInsufficientPermissions, "only the character's player or a gamemaster may do this")
}
