package domain

import "time"

// Role is the closed set of actor roles. Roles are disjoint capability
// sets, not a hierarchy: no role implies another.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User models the authenticated actor as the backend reports it.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	RealName  string    `json:"realName,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the session's own pointer.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// Merge returns a copy of u with every non-zero field of other applied on
// top. Profile updates replace only the fields the server echoed back.
func (u *User) Merge(other *User) *User {
	merged := u.Clone()
	if merged == nil {
		return other.Clone()
	}
	if other == nil {
		return merged
	}
	if other.ID != 0 {
		merged.ID = other.ID
	}
	if other.Username != "" {
		merged.Username = other.Username
	}
	if other.Email != "" {
		merged.Email = other.Email
	}
	if other.Role != "" {
		merged.Role = other.Role
	}
	if other.Avatar != "" {
		merged.Avatar = other.Avatar
	}
	if other.RealName != "" {
		merged.RealName = other.RealName
	}
	if other.Phone != "" {
		merged.Phone = other.Phone
	}
	if !other.CreatedAt.IsZero() {
		merged.CreatedAt = other.CreatedAt
	}
	if !other.UpdatedAt.IsZero() {
		merged.UpdatedAt = other.UpdatedAt
	}
	return merged
}

// Session is the client's current authentication state. The zero value is
// the logged-out session.
type Session struct {
	Token   string
	User    *User
	Loading bool
}

// LoggedIn holds exactly when both the token and the user are present.
func (s Session) LoggedIn() bool {
	return s.Token != "" && s.User != nil
}

// RoleIs reports whether the session carries an authenticated user with
// the given role.
func (s Session) RoleIs(r Role) bool {
	return s.User != nil && s.User.Role == r
}

// HasAnyRole reports whether the session's user holds one of roles.
// An absent user never matches.
func (s Session) HasAnyRole(roles ...Role) bool {
	if s.User == nil {
		return false
	}
	for _, r := range roles {
		if s.User.Role == r {
			return true
		}
	}
	return false
}

// Result is the outcome of a user-initiated session operation. Failures
// carry the server-provided reason when one exists, a generic fallback
// otherwise; errors never propagate past the session manager boundary.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func Success(message string) Result {
	return Result{OK: true, Message: message}
}

func Failure(message string) Result {
	return Result{OK: false, Message: message}
}

// RegisterInput is the registration form. Registration does not establish
// a session; the caller logs in separately.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	RealName string `json:"realName" validate:"required"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=6"`
}

// ProfileUpdate carries the fields a user may change about themselves.
// Nil pointers mean "leave unchanged".
type ProfileUpdate struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Avatar   *string `json:"avatar,omitempty"`
	RealName *string `json:"realName,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// SessionEventType classifies entries in the session audit trail.
type SessionEventType string

const (
	EventLoginSuccess SessionEventType = "login_success"
	EventLoginFailure SessionEventType = "login_failure"
	EventRegister     SessionEventType = "register"
	EventLogout       SessionEventType = "logout"
	EventForcedClear  SessionEventType = "forced_clear"
	EventAccessDenied SessionEventType = "access_denied"
)

// SessionEvent is one audit-trail record. Recording is best effort and
// never influences the session operation that produced it.
type SessionEvent struct {
	Type     SessionEventType
	Username string
	Role     Role
	Path     string
	Reason   string
	At       time.Time
}
