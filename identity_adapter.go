package identity

// userIdentity adapts a User record into the Identity interface for token
// generation and credential checks.
type userIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return userIdentity{user: user}
}

func (a userIdentity) ID() int64      { return a.user.ID }
func (a userIdentity) Email() string  { return a.user.Email }
func (a userIdentity) Role() UserRole { return a.user.Role }
func (a userIdentity) Active() bool   { return a.user.IsActive }

// Record exposes the backing row so callers can build the public projection
func (a userIdentity) Record() *User { return a.user }

var _ Identity = userIdentity{}
