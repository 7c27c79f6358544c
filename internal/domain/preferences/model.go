package preferences

import "slices"

// Theme selects the color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// FontSize selects the base font size.
type FontSize string

const (
	FontSizeDefault    FontSize = "default"
	FontSizeLarge      FontSize = "large"
	FontSizeExtraLarge FontSize = "extra-large"
)

// TimeFormat selects 12 or 24 hour clocks.
type TimeFormat string

const (
	TimeFormat12h TimeFormat = "12h"
	TimeFormat24h TimeFormat = "24h"
)

// NotificationPreferences selects notification channels.
type NotificationPreferences struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
	InApp bool `json:"inApp"`
}

// Preferences is the user preference document.
type Preferences struct {
	Theme                   Theme                   `json:"theme"`
	FontSize                FontSize                `json:"fontSize"`
	Animations              bool                    `json:"animations"`
	DashboardLayout         []string                `json:"dashboardLayout"`
	QuickActions            []string                `json:"quickActions"`
	KeyboardShortcuts       map[string]string       `json:"keyboardShortcuts"`
	CompactMode             bool                    `json:"compactMode"`
	Timezone                string                  `json:"timezone,omitempty"`
	DateFormat              string                  `json:"dateFormat"`
	TimeFormat              TimeFormat              `json:"timeFormat"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
}

// Defaults returns the preferences used for fields that were never stored.
func Defaults() Preferences {
	return Preferences{
		Theme:           ThemeSystem,
		FontSize:        FontSizeDefault,
		Animations:      true,
		DashboardLayout: []string{"healthMetrics", "appointments", "medications", "recentActivity"},
		QuickActions:    []string{"book-appointment", "add-medication", "add-record", "emergency"},
		KeyboardShortcuts: map[string]string{
			"search":       "/",
			"settings":     "Ctrl+,",
			"emergency":    "Ctrl+E",
			"appointments": "g a",
			"medications":  "g m",
			"records":      "g r",
			"home":         "g h",
		},
		CompactMode: false,
		DateFormat:  "MM/DD/YYYY",
		TimeFormat:  TimeFormat12h,
		NotificationPreferences: NotificationPreferences{
			Email: true,
			Push:  true,
			SMS:   false,
			InApp: true,
		},
	}
}

// Keys lists the updatable top-level preference names.
var Keys = []string{
	"theme",
	"fontSize",
	"animations",
	"dashboardLayout",
	"quickActions",
	"keyboardShortcuts",
	"compactMode",
	"timezone",
	"dateFormat",
	"timeFormat",
	"notificationPreferences",
}

// IsKey reports whether key names a preference.
func IsKey(key string) bool {
	return slices.Contains(Keys, key)
}

// Validate checks enumerated fields.
func (p Preferences) Validate() error {
	switch p.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return ErrInvalidValue
	}
	switch p.FontSize {
	case FontSizeDefault, FontSizeLarge, FontSizeExtraLarge:
	default:
		return ErrInvalidValue
	}
	switch p.TimeFormat {
	case TimeFormat12h, TimeFormat24h:
	default:
		return ErrInvalidValue
	}
	return nil
}
