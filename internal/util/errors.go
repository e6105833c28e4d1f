package util

import (
	"errors"
	"fmt"
)

var (
	ErrAINotConfigured         = errors.New("ai api key not configured")
	ErrInvalidUpstreamResponse = errors.New("invalid response structure from API")
	ErrPromptRequired          = errors.New("Prompt or imagePrompt is required")
	ErrInvalidRequestType      = errors.New("Invalid request type")
	ErrImageRequired           = errors.New("No image found in request.")
	ErrImageDisabled           = errors.New("image analysis is not enabled")
	ErrConversationNotFound    = errors.New("conversation not found")
	ErrLearnerNotFound         = errors.New("learner not found")
)

// UpstreamError 上游返回非 2xx 状态码
type UpstreamError struct {
	Target     string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Target, e.StatusCode, e.Body)
}

// UpstreamStatus 返回上游状态码，不是 UpstreamError 时返回 0
func UpstreamStatus(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}
