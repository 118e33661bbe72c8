// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into emails.
package queue

import "time"

// OTPMailQueue is the durable queue carrying one-time code emails.
const OTPMailQueue = "otp.mail"

// OTPMailRequested is published when a user asks for a sign-in code.  The
// consumer mails Code to Email; the code is only valid until ExpiresAt.
type OTPMailRequested struct {
	Email       string    `json:"email"`
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expires_at"`
	RequestedAt time.Time `json:"requested_at"`
}
