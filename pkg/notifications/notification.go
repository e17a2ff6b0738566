package notifications

import "time"

// Platform identifies the runtime the notifications are presented on.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformServer  Platform = "server"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformWeb, PlatformIOS, PlatformAndroid, PlatformServer:
		return true
	default:
		return false
	}
}

// SupportsNotifications reports whether user-visible notifications can be shown on p.
func (p Platform) SupportsNotifications() bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformServer:
		return true
	case PlatformWeb:
		return false
	default:
		return false
	}
}

// Notification is an immediate, user-visible message.
type Notification struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Presentation controls how notifications are shown while the app is in the foreground.
type Presentation struct {
	ShowAlert bool `json:"show_alert"`
	PlaySound bool `json:"play_sound"`
	SetBadge  bool `json:"set_badge"`
}

// DefaultPresentation shows an alert and plays a sound without touching the badge.
func DefaultPresentation() Presentation {
	return Presentation{ShowAlert: true, PlaySound: true}
}
