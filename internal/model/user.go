package model

import "time"

// User is an account stored in the users collection, keyed by the
// normalised email address.  The json tags describe the stored document;
// handlers expose their own response shapes.
//
// Fields:
//
//	ID           – UUID assigned at sign-up; used as the token subject and
//	               therefore as the booking identity.
//	Email        – lower-cased, trimmed email address.
//	PasswordHash – bcrypt hash, empty for accounts created through a
//	               one-time code.
//	CreatedAt    – creation timestamp (UTC).
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OTP is a pending one-time code stored in the otps collection, keyed by
// email.  Only a SHA-256 hash of the code is kept.
//
// Fields:
//
//	CodeHash  – hex digest of the code.
//	ExpiresAt – end of the validity window.
//	Verified  – set once the code has been checked successfully.
//	Consumed  – set once a session token has been minted from it.
//	Attempts  – verification attempts so far, successful or not.
type OTP struct {
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
	Consumed  bool      `json:"consumed"`
	Attempts  int       `json:"attempts"`
}
