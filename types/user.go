package types

// User represents an account document in the users collection.
// Its primary identifier is the email address itself.
type User struct {
	// Email is the natural key of the account.
	Email string `json:"email" bson:"_id"`

	// Handle is the public display name.
	Handle string `json:"handle" bson:"handle"`

	// Password stores the salted PBKDF2 digest of the user's password.
	// This field is never exposed in API responses.
	Password string `json:"-" bson:"password"`
}

// Identity is the authenticated payload carried by a session cookie.
// It is trusted for the duration of a request once the cookie's
// signature has been verified; no store round-trip is performed.
type Identity struct {
	Email  string `json:"email"`
	Handle string `json:"handle"`
}
