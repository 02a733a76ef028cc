package transfer

// GenerationRequest matches the dashboard's /social/content/generate call.
type GenerationRequest struct {
	FeatureKey  string            `json:"feature_key"`
	Platform    string            `json:"platform"`
	ContentType string            `json:"content_type"`
	Tone        string            `json:"tone"`
	Topic       string            `json:"topic"`
	ThemePreset string            `json:"theme_preset"`
	Variation   *ContentVariation `json:"content_variation"`
	ClientID    string            `json:"client_id"`
}

type GeneratedContent struct {
	Content string `json:"content"`
}

type GenerationResponse struct {
	Content []GeneratedContent `json:"content"`
}
