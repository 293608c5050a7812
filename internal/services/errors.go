package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/practice-service/internal/errors"
	"github.com/SAP-F-2025/practice-service/internal/session"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Prompt errors
	ErrPromptNotFound        = errors.New("prompt not found")
	ErrPromptNotPublished    = errors.New("prompt is not published")
	ErrPromptKindMismatch    = errors.New("prompt is of a different kind")
	ErrClozeTemplateRequired = errors.New("cloze questions require a cloze template")

	// Submission errors
	ErrSubmissionNotFound         = errors.New("submission not found")
	ErrSubmissionAlreadySubmitted = errors.New("submission already submitted")
	ErrSubmissionNotDraft         = errors.New("submission is not a draft")
	ErrSubmissionNotSubmitted     = errors.New("submission is not awaiting review")

	// Listening errors
	ErrPlayLimitReached = errors.New("maximum number of plays reached")
	ErrTranscriptLocked = errors.New("transcript is not available yet")
	ErrAudioURLUsed     = errors.New("audio link has already been used")
	ErrAudioURLInvalid  = errors.New("audio link is invalid or expired")

	// Feedback errors
	ErrFeedbackNotFound = errors.New("feedback not found")

	// Live session errors
	ErrSessionNotFound = errors.New("no open session for this prompt")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// BusinessRuleError carries the rule context to the client. Err, when set, is
// the sentinel it stands for.
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
	Err     error                  `json:"-"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

func (bre *BusinessRuleError) Unwrap() error {
	return bre.Err
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func newPlayLimitError(maxPlays int) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    "max_plays",
		Message: fmt.Sprintf("the recording can be played %d times in exam mode", maxPlays),
		Context: map[string]interface{}{"max_plays": maxPlays},
		Err:     ErrPlayLimitReached,
	}
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPromptNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		errors.Is(err, ErrFeedbackNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrClozeTemplateRequired) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre) ||
		errors.Is(err, ErrPlayLimitReached) ||
		errors.Is(err, ErrTranscriptLocked) ||
		errors.Is(err, ErrPromptNotPublished) ||
		errors.Is(err, ErrPromptKindMismatch) ||
		errors.Is(err, session.ErrNotStarted) ||
		errors.Is(err, session.ErrTimerRunning)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrSubmissionAlreadySubmitted) ||
		errors.Is(err, ErrSubmissionNotDraft) ||
		errors.Is(err, ErrSubmissionNotSubmitted) ||
		errors.Is(err, session.ErrLocked) ||
		errors.Is(err, session.ErrSubmitInFlight) ||
		errors.Is(err, session.ErrAlreadySubmitted) ||
		errors.Is(err, session.ErrDraftOpen)
}

// IsGone reports an audio link that can no longer be redeemed.
func IsGone(err error) bool {
	return errors.Is(err, ErrAudioURLUsed) || errors.Is(err, ErrAudioURLInvalid)
}
