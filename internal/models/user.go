package models

import "time"

// User represents a registered user account.
//
// A user is created on the first successful login with an identity-provider
// token and is looked up by FirebaseUID afterwards.
type User struct {
	// ID is the unique identifier for the user.
	ID int64

	// FirebaseUID is the identity provider's uid for this user (unique).
	FirebaseUID string

	// PhoneNumber is taken from the identity token at registration.
	PhoneNumber string

	// Username is an optional unique handle chosen by the user.
	Username string

	// Name is the display name of the user.
	Name string

	// Email is used as the payer email on gateway invoices.
	Email string

	// ProfileImage is a URL to the user's avatar.
	ProfileImage string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// DecodedToken is the result of verifying an identity-provider token.
type DecodedToken struct {
	// UID is the provider's user id (the "user_id" claim for Firebase).
	UID string

	// PhoneNumber is the verified phone number carried by the token.
	PhoneNumber string
}
