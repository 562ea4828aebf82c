// Package models holds the server's domain records.
package models

import "time"

// Subscription plans.
const (
	SubscriptionStarter  = "starter"
	SubscriptionPro      = "pro"
	SubscriptionBusiness = "business"
)

// User is the stored account record. Token is the single active session
// token; nil means no session.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Subscription string
	AvatarURL    string
	Token        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicProfile is the part of User that may leave the service.
type PublicProfile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarURL"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Subscription: u.Subscription,
		AvatarURL:    u.AvatarURL,
	}
}

// CurrentUser is what get-current discloses.
type CurrentUser struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
}

func (u *User) Current() CurrentUser {
	return CurrentUser{Email: u.Email, Subscription: u.Subscription}
}

// ProfileFields are the optional fields accepted at signup.
type ProfileFields struct {
	Name         string
	Subscription string
}

// ProfileUpdate is a partial update; nil fields are left as they are.
type ProfileUpdate struct {
	Name         *string
	Email        *string
	Subscription *string
	Password     *string
}

// ProfileColumns are the stored columns a profile update may write. Nil
// columns are not written, so concurrent updates of other columns survive.
type ProfileColumns struct {
	Email        *string
	PasswordHash *string
	Name         *string
	Subscription *string
}

// FileRef points at an uploaded file that has been fully written.
type FileRef struct {
	Path         string
	OriginalName string
	ContentType  string
}

// FederatedIdentity is the remote profile returned by the identity provider.
type FederatedIdentity struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail *bool  `json:"verified_email"`
}

func ValidSubscription(s string) bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	}
	return false
}
