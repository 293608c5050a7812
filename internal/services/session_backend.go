package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/practice-service/internal/session"
)

// AttemptAPI is the part of the listening and writing services a session
// drives.
type AttemptAPI interface {
	StartAttempt(ctx context.Context, promptID string, req *StartAttemptRequest, userID string) (*AttemptResponse, error)
	Autosave(ctx context.Context, submissionID string, req *AutosaveRequest, userID string) (*AutosaveResponse, error)
	Submit(ctx context.Context, submissionID string, req *SubmitRequest, userID string) (*SubmissionResult, error)
}

// SessionBackend adapts a service to session.Backend for one user, so a
// session can run in-process against the same rules the HTTP API applies.
type SessionBackend struct {
	api    AttemptAPI
	userID string
}

var _ session.Backend = (*SessionBackend)(nil)

func NewSessionBackend(api AttemptAPI, userID string) *SessionBackend {
	return &SessionBackend{api: api, userID: userID}
}

func (b *SessionBackend) StartAttempt(ctx context.Context, key session.Key, attemptNumber int) (session.AttemptRef, error) {
	resp, err := b.api.StartAttempt(ctx, key.PromptID, &StartAttemptRequest{Mode: key.Mode}, b.userID)
	if err != nil {
		return session.AttemptRef{}, err
	}
	if resp.AttemptNumber < attemptNumber && resp.Resumed {
		return session.AttemptRef{}, fmt.Errorf("attempt %d requested but draft of attempt %d is still open", attemptNumber, resp.AttemptNumber)
	}
	return resp.AttemptRef, nil
}

func (b *SessionBackend) Autosave(ctx context.Context, submissionID string, draft session.Draft) error {
	_, err := b.api.Autosave(ctx, submissionID, &AutosaveRequest{
		ContentText: draft.Content,
		Responses:   draft.Responses,
		Seq:         draft.Seq,
	}, b.userID)
	return err
}

func (b *SessionBackend) Submit(ctx context.Context, submissionID string, draft session.Draft, reason session.SubmitReason) error {
	_, err := b.api.Submit(ctx, submissionID, &SubmitRequest{
		ContentText: draft.Content,
		Responses:   draft.Responses,
		Seq:         draft.Seq,
		Reason:      reason,
	}, b.userID)
	return err
}
