package transfer

// PostCreation is a manual one-off post: content is pre-supplied and the
// post goes straight to pending (no rule, no generation).
type PostCreation struct {
	Content          string `json:"content"`
	ScheduledAt      string `json:"scheduled_at"` // "2006-01-02T15:04" local to the client
	Timezone         string `json:"timezone"`
	SelectedAccounts string `json:"selected_accounts"` // JSON array of account ids
}

// PostUpdate edits a pending post. Both fields optional; omitted fields keep
// their value.
type PostUpdate struct {
	Content     *string `json:"content"`
	ScheduledAt *string `json:"scheduled_at"`
	Timezone    string  `json:"timezone"`
}

// AccountSettingsUpdate toggles the per-account approval gate.
type AccountSettingsUpdate struct {
	ApprovalRequired bool `json:"approval_required"`
}
