package config

// MailConfig holds the sender settings for one-time code emails.  With no
// API key the server logs codes instead of mailing them, which is what
// development setups want.
type MailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	Subject   string
}

// LoadMailConfig reads MAILERSEND_API_KEY and MAIL_FROM_* variables.
func LoadMailConfig() MailConfig {
	return MailConfig{
		APIKey:    envStr("MAILERSEND_API_KEY", ""),
		FromEmail: envStr("MAIL_FROM_EMAIL", "no-reply@library.local"),
		FromName:  envStr("MAIL_FROM_NAME", "Library Seats"),
		Subject:   envStr("MAIL_OTP_SUBJECT", "Your library seat login code"),
	}
}
