package onboarding

// State summarizes a tenant's onboarding progress.
type State struct {
	SeenTips        []string `json:"seen_tips"`
	CompletedTours  []string `json:"completed_tours"`
	SavedHelpTopics []string `json:"saved_help_topics"`
}
