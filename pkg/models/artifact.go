package models

import "time"

// ArtifactCategory classifies stored binary outputs.
type ArtifactCategory string

const (
	ArtifactImage ArtifactCategory = "image"
	ArtifactAudio ArtifactCategory = "audio"
	ArtifactVideo ArtifactCategory = "video"
	ArtifactCode  ArtifactCategory = "code"
)

// Valid reports whether the category belongs to the known set.
func (c ArtifactCategory) Valid() bool {
	switch c {
	case ArtifactImage, ArtifactAudio, ArtifactVideo, ArtifactCode:
		return true
	}

	return false
}

// Dir returns the storage directory name for the category.
func (c ArtifactCategory) Dir() string {
	switch c {
	case ArtifactImage:
		return "images"
	case ArtifactAudio:
		return "audio"
	case ArtifactVideo:
		return "videos"
	case ArtifactCode:
		return "code"
	}

	return string(c)
}

// Artifact describes one stored binary output. The bytes themselves are
// owned by the artifact store; tasks reference artifacts by id.
type Artifact struct {
	ID         string           `json:"id"`
	Filename   string           `json:"filename"`
	URL        string           `json:"url"`
	Category   ArtifactCategory `json:"category"`
	Prompt     string           `json:"prompt,omitempty"`
	Size       int64            `json:"size"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	ModifiedAt time.Time        `json:"modified_at"`
}
