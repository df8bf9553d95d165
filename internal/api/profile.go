package api

import (
	"fmt"
	"sort"
	"strings"
)

// Profile describes one wire contract for the video service.
type Profile struct {
	Name string

	// BaseURL is used when no endpoint override is configured.
	BaseURL string
	// BasePath is inserted between the endpoint and "/videos".
	BasePath string

	// ScriptField names the request body field carrying the script text.
	ScriptField string
	// DownloadURLField names the response field carrying the finished file URL.
	DownloadURLField string
	// Model is sent as "model" when non-empty.
	Model string
}

// Profile names.
const (
	ProfileSora2  = "sora2"
	ProfileOpenAI = "openai"
)

var profiles = map[string]Profile{
	ProfileSora2: {
		Name:             ProfileSora2,
		BaseURL:          "https://api.sora2.com",
		ScriptField:      "script",
		DownloadURLField: "download_url",
	},
	// Legacy contract spoken by the OpenAI-hosted endpoint.
	ProfileOpenAI: {
		Name:             ProfileOpenAI,
		BaseURL:          "https://api.openai.com",
		BasePath:         "/v1",
		ScriptField:      "prompt",
		DownloadURLField: "url",
		Model:            "sora-2",
	},
}

// DefaultProfile returns the authoritative contract.
func DefaultProfile() Profile {
	return profiles[ProfileSora2]
}

// LookupProfile resolves a profile by name. Blank selects the default.
func LookupProfile(name string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return DefaultProfile(), nil
	}
	p, ok := profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (known: %s)", name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames lists the built-in profiles in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
