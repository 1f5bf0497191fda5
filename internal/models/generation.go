package models

import (
	"encoding/json"
	"strings"
)

// Platform identifies the channel the generated content is written for
type Platform string

const (
	PlatformGeneral       Platform = "General"
	PlatformInstagram     Platform = "Instagram"
	PlatformLinkedIn      Platform = "LinkedIn"
	PlatformYouTubeScript Platform = "YouTube Script"
)

// Platforms lists the supported platforms in display order
var Platforms = []Platform{
	PlatformGeneral,
	PlatformInstagram,
	PlatformLinkedIn,
	PlatformYouTubeScript,
}

var platformAliases = map[string]Platform{
	"general":        PlatformGeneral,
	"instagram":      PlatformInstagram,
	"linkedin":       PlatformLinkedIn,
	"youtube script": PlatformYouTubeScript,
	"youtubescript":  PlatformYouTubeScript,
	"youtube":        PlatformYouTubeScript,
}

// ParsePlatform resolves a wire value or alias to a Platform
func ParsePlatform(value string) (Platform, bool) {
	p, ok := platformAliases[strings.ToLower(strings.TrimSpace(value))]
	return p, ok
}

// GenerationRequest is the normalized payload sent to the generation service
type GenerationRequest struct {
	Text         string   `json:"text"`
	Platform     Platform `json:"platform"`
	Temperature  float64  `json:"temperature"`
	MaxTokens    int      `json:"max_tokens"`
	UseLegacyAPI bool     `json:"use_legacy"`
}

// GenerationResult is the successful response of the generation service
type GenerationResult struct {
	Content          string   `json:"content"`
	Intent           string   `json:"intent"`
	Sentiment        string   `json:"sentiment"`
	Documents        []string `json:"documents"`
	TimeTakenSeconds float64  `json:"time_taken"`
	FallbackUsed     bool     `json:"fallback_used"`
	Reason           *string  `json:"reason"`
}

// UnmarshalJSON keeps Documents non-nil when the field is absent or null.
func (r *GenerationResult) UnmarshalJSON(data []byte) error {
	type alias GenerationResult
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.Documents == nil {
		decoded.Documents = []string{}
	}
	*r = GenerationResult(decoded)
	return nil
}

// FormInput carries the raw form fields as entered by the user.
// Nil pointers mean the field was left unset.
type FormInput struct {
	Text        string   `json:"text"`
	Platform    string   `json:"platform,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	UseLegacy   *bool    `json:"use_legacy,omitempty"`
}

// ProviderStatus reports which model providers the service can reach
type ProviderStatus struct {
	Status           string          `json:"status"`
	Providers        map[string]bool `json:"providers"`
	PrimaryProvider  string          `json:"primary_provider,omitempty"`
	FallbackProvider string          `json:"fallback_provider,omitempty"`
	LocalFallback    string          `json:"local_fallback,omitempty"`
	Error            string          `json:"error,omitempty"`
}
