// Package web provides the HTTP handlers and request/response types for
// the content-generation API.
package web

import (
	"github.com/lumoworks/lumo/pkg/models"
)

// GenerateImageRequest is the body of POST /api/images/generate. N > 1
// fans out to the batch pipeline with the same prompt.
type GenerateImageRequest struct {
	Prompt  string `json:"prompt"  validate:"required,min=1,max=4000"`
	N       int    `json:"n"       validate:"omitempty,min=1,max=10"`
	Size    string `json:"size"    validate:"omitempty,oneof=256x256 512x512 1024x1024 1792x1024 1024x1792"`
	Quality string `json:"quality" validate:"omitempty,oneof=standard hd fullhd 4k"`
	Style   string `json:"style"   validate:"omitempty,max=100"`
}

// GenerateImageBatchRequest is the body of POST /api/images/generate-batch.
type GenerateImageBatchRequest struct {
	Prompts []string `json:"prompts" validate:"required,min=1,max=10,dive,required,min=1,max=4000"`
	Size    string   `json:"size"    validate:"omitempty,oneof=256x256 512x512 1024x1024 1792x1024 1024x1792"`
	Quality string   `json:"quality" validate:"omitempty,oneof=standard hd fullhd 4k"`
	Style   string   `json:"style"   validate:"omitempty,max=100"`
}

// GenerateVideoRequest is the body of POST /api/videos/generate-auto.
type GenerateVideoRequest struct {
	Topic       string `json:"topic"       validate:"required,min=1,max=500"`
	Duration    int    `json:"duration"    validate:"omitempty,min=5,max=300"`
	Style       string `json:"style"       validate:"omitempty,max=100"`
	AspectRatio string `json:"aspectRatio" validate:"omitempty,oneof=16:9 9:16 1:1"`
	Quality     string `json:"quality"     validate:"omitempty,oneof=hd fullhd 4k"`
	VoiceID     string `json:"voiceId"     validate:"omitempty,max=100"`
}

// GenerateScriptRequest is the body of POST /api/videos/generate-script.
type GenerateScriptRequest struct {
	Topic    string `json:"topic"    validate:"required,min=1,max=500"`
	Duration int    `json:"duration" validate:"omitempty,min=5,max=300"`
	Style    string `json:"style"    validate:"omitempty,max=100"`
}

// GenerateCodeRequest is the body of POST /api/code/generate.
type GenerateCodeRequest struct {
	Description     string `json:"description"     validate:"required,min=1,max=4000"`
	Language        string `json:"language"        validate:"omitempty,max=50"`
	Framework       string `json:"framework"       validate:"omitempty,max=50"`
	Complexity      string `json:"complexity"      validate:"omitempty,oneof=simple intermediate advanced"`
	IncludeTests    bool   `json:"includeTests"`
	IncludeComments bool   `json:"includeComments"`
}

// ReviewCodeRequest is the body of POST /api/code/review.
type ReviewCodeRequest struct {
	Code       string `json:"code"       validate:"required,min=1"`
	Language   string `json:"language"   validate:"omitempty,max=50"`
	ReviewType string `json:"reviewType" validate:"omitempty,oneof=general security performance style"`
}

// TriggerRequest describes an automation trigger binding.
type TriggerRequest struct {
	Kind     string `json:"kind"     validate:"required,oneof=manual scheduled webhook"`
	Schedule string `json:"schedule" validate:"omitempty,max=100"`
}

// ActionRequest is one step of an automation's action list.
type ActionRequest struct {
	Type    string         `json:"type"     validate:"required"`
	Name    string         `json:"name"     validate:"required,min=1,max=200"`
	Config  map[string]any `json:"config"`
	OnError string         `json:"on_error" validate:"omitempty,oneof=continue stop retry"`
	Retries int            `json:"retries"  validate:"omitempty,min=1,max=10"`
}

// CreateAutomationRequest is the body of POST /api/automation/create.
type CreateAutomationRequest struct {
	Name        string          `json:"name"        validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"required,max=2000"`
	Trigger     TriggerRequest  `json:"trigger"     validate:"required"`
	Actions     []ActionRequest `json:"actions"     validate:"required,min=1,dive"`
	Enabled     *bool           `json:"enabled"`
}

// UpdateAutomationRequest is the body of PUT /api/automation/:id.
type UpdateAutomationRequest struct {
	Name        string          `json:"name"        validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"required,max=2000"`
	Trigger     TriggerRequest  `json:"trigger"     validate:"required"`
	Actions     []ActionRequest `json:"actions"     validate:"required,min=1,dive"`
	Enabled     *bool           `json:"enabled"`
}

// ChatMessageRequest is the body of POST /api/chat/message.
type ChatMessageRequest struct {
	Message        string `json:"message"        validate:"required,min=1,max=8000"`
	ConversationID string `json:"conversationId" validate:"omitempty,uuid4"`
}

// Pagination is the page metadata attached to list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func newPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func (r TriggerRequest) toModel() models.Trigger {
	return models.Trigger{
		Kind:     models.TriggerKind(r.Kind),
		Schedule: r.Schedule,
	}
}

func toModelActions(reqs []ActionRequest) []models.Action {
	actions := make([]models.Action, 0, len(reqs))
	for _, r := range reqs {
		actions = append(actions, models.Action{
			Type:    r.Type,
			Name:    r.Name,
			Config:  r.Config,
			OnError: models.OnErrorPolicy(r.OnError),
			Retries: r.Retries,
		})
	}

	return actions
}
