package types

import (
	"fmt"
	"strings"
	"time"
)

// Trained model directories are named <sanitized-prompt>-<date>-<time> with
// date as YYYYMMDD and time as HHMMSS, e.g. "a_dog-20240101-120000".
const artifactTimeLayout = "20060102-150405"

// ModelArtifact describes one persisted trained model. It is derived by
// parsing a directory name on demand and is never stored.
type ModelArtifact struct {
	// Name is the directory name under the model root
	Name string `json:"name"`

	// Prompt is the instance prompt the model was trained on
	Prompt string `json:"prompt"`

	// CreatedAt is the timestamp encoded in the directory name
	CreatedAt time.Time `json:"created_at"`
}

// SanitizePrompt converts an instance prompt into its directory-name form:
// spaces become underscores and path separator characters are stripped.
func SanitizePrompt(prompt string) string {
	s := strings.ReplaceAll(prompt, " ", "_")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, `\`, "")
	return s
}

// ArtifactDirName builds the directory name for a model trained on prompt at
// the given time.
func ArtifactDirName(prompt string, at time.Time) string {
	return fmt.Sprintf("%s-%s", SanitizePrompt(prompt), at.Format(artifactTimeLayout))
}

// ParseArtifactName parses a model directory name back into a ModelArtifact.
// The prompt portion may itself contain hyphens, so the timestamp is taken
// from the last two hyphen-separated parts.
func ParseArtifactName(name string) (ModelArtifact, error) {
	parts := strings.Split(name, "-")
	if len(parts) < 3 {
		return ModelArtifact{}, fmt.Errorf("artifact name %q does not match <prompt>-<date>-<time>", name)
	}

	stamp := parts[len(parts)-2] + "-" + parts[len(parts)-1]
	createdAt, err := time.Parse(artifactTimeLayout, stamp)
	if err != nil {
		return ModelArtifact{}, fmt.Errorf("artifact name %q has invalid timestamp: %w", name, err)
	}

	prompt := strings.Join(parts[:len(parts)-2], "-")
	prompt = strings.ReplaceAll(prompt, "_", " ")

	return ModelArtifact{
		Name:      name,
		Prompt:    prompt,
		CreatedAt: createdAt,
	}, nil
}
