package notifications

// Config holds notification settings. Postmark fields are optional; the email
// copy of notifications is disabled unless all of them are set.
type Config struct {
	Platform             string `env:"NOTIFICATIONS_PLATFORM" envDefault:"server"`
	InboxSize            int    `env:"NOTIFICATIONS_INBOX_SIZE" envDefault:"100"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"NOTIFICATIONS_SENDER_EMAIL"`
	RecipientEmail       string `env:"NOTIFICATIONS_RECIPIENT_EMAIL"`
}

// EmailEnabled reports whether the Postmark deliverer can be built from c.
func (c Config) EmailEnabled() bool {
	return c.PostmarkServerToken != "" && c.SenderEmail != "" && c.RecipientEmail != ""
}
