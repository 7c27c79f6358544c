package storage

// Well-known local storage keys.
const (
	KeyRecentlyViewed  = "healthspectrum-recently-viewed"
	KeyPreferences     = "healthspectrum-preferences"
	KeySavedHelpTopics = "healthspectrum-saved-help-topics"
	KeySeenTips        = "seenTips"
	KeyCompletedTours  = "completedTours"
)
