package models

// Identity is the client-held belief about the current user. The zero value
// is the anonymous identity.
type Identity struct {
	UserID       int64  `json:"userId,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`

	IsAuthenticated bool `json:"isAuthenticated"`
}

// Profile is the "who am I" payload returned by the backend.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// MergeProfile copies the non-empty profile fields into i. UserID, tokens
// and IsAuthenticated are left untouched.
func (i Identity) MergeProfile(p Profile) Identity {
	if p.Username != "" {
		i.Username = p.Username
	}
	if p.Email != "" {
		i.Email = p.Email
	}
	if p.FirstName != "" {
		i.FirstName = p.FirstName
	}
	if p.LastName != "" {
		i.LastName = p.LastName
	}
	if p.AvatarURL != "" {
		i.AvatarURL = p.AvatarURL
	}
	return i
}

// LoginResult is the body of a successful POST /auth/login.
type LoginResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ID           int64  `json:"id"`
	Username     string `json:"username"`
}

// Identity converts a login response into an authenticated identity.
func (r LoginResult) Identity() Identity {
	return Identity{
		UserID:          r.ID,
		Username:        r.Username,
		Token:           r.Token,
		RefreshToken:    r.RefreshToken,
		IsAuthenticated: true,
	}
}
