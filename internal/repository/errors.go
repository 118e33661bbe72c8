// Package repository stores accounts and one-time codes as documents in the
// same store that holds the seats.  The sentinel values below let handlers
// tell the failure cases apart.
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist.
// Handlers usually answer 401 for it on auth endpoints so that unknown
// emails are indistinguishable from bad passwords.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by UserRepo.Create for a taken email.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a record changed between read and write.
// Callers may reload and try again.
var ErrConflict = errors.New("conflict")
