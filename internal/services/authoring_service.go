package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/practice-service/internal/cloze"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type authoringService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	suggest   cloze.SuggestOptions
}

func NewAuthoringService(repo repositories.Repository, suggest cloze.SuggestOptions, logger *slog.Logger, validator *validator.Validator) AuthoringService {
	return &authoringService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		suggest:   suggest,
	}
}

// BuildCloze turns selected spans into a template. Overlapping or out of
// range spans are left out of the template and listed in Dropped.
func (s *authoringService) BuildCloze(ctx context.Context, req *BuildClozeRequest) (*cloze.Template, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := checkTranscript(req.Transcript); err != nil {
		return nil, err
	}

	tpl := cloze.Build(req.Transcript, req.Spans)
	if len(tpl.Dropped) > 0 {
		s.logger.Warn("Cloze spans dropped",
			"dropped", len(tpl.Dropped),
			"kept", len(tpl.GapItems))
	}
	return &tpl, nil
}

func (s *authoringService) SuggestGaps(ctx context.Context, req *SuggestGapsRequest) (*SuggestGapsResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := checkTranscript(req.Transcript); err != nil {
		return nil, err
	}

	opts := s.suggest
	if req.Limit > 0 {
		opts.Limit = req.Limit
	}
	spans := cloze.Suggest(cloze.Tokenize(req.Transcript), opts)
	return &SuggestGapsResponse{
		Spans:    spans,
		Template: cloze.Build(req.Transcript, spans),
	}, nil
}

// checkTranscript refuses transcripts that already hold gap markers.
func checkTranscript(transcript string) error {
	if cloze.ContainsMarker(transcript) {
		return ValidationErrors{*NewValidationError("transcript", "must not contain gap markers such as [ 1 ]", nil)}
	}
	return nil
}

// PublishListeningTest stores the transcript, the cloze template and the
// question set with its answer keys. When spans are given and no template is,
// the template is built from the spans and CLOZE answers left empty are taken
// from the matching gap.
func (s *authoringService) PublishListeningTest(ctx context.Context, req *CreateListeningTestRequest, authorID string) (*models.Prompt, error) {
	s.logger.Info("Publishing listening test",
		"title", req.Title,
		"author_id", authorID,
		"questions", len(req.Questions))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := checkTranscript(req.Transcript); err != nil {
		return nil, err
	}

	template := req.ClozeTemplate
	if strings.TrimSpace(template) == "" && len(req.Spans) > 0 {
		built := cloze.Build(req.Transcript, req.Spans)
		template = built.Text
		answers := built.Answers()
		for i := range req.Questions {
			q := &req.Questions[i]
			if q.Type == models.QuestionCloze && strings.TrimSpace(q.Answer) == "" {
				q.Answer = answers[q.GapIndex]
			}
		}
	}

	hasCloze := false
	for _, q := range req.Questions {
		if q.Type == models.QuestionCloze {
			hasCloze = true
			break
		}
	}
	if hasCloze && strings.TrimSpace(template) == "" {
		return nil, ErrClozeTemplateRequired
	}

	if errs := s.validator.Question().ValidateSet(req.Questions, template, transcriptLength(req.Transcript)); len(errs) > 0 {
		return nil, errs
	}

	tags, err := encodeTags(req.Tags)
	if err != nil {
		return nil, err
	}
	prompt := &models.Prompt{
		ID:               uuid.NewString(),
		Kind:             models.PromptListening,
		TaskType:         models.TaskListening,
		Title:            req.Title,
		Genre:            req.Genre,
		TranscriptText:   req.Transcript,
		AudioStoragePath: req.AudioStoragePath,
		ClozeTemplate:    template,
		SourceURL:        req.SourceURL,
		Tags:             tags,
		IsPublished:      req.Publish,
		CreatedBy:        authorID,
	}

	questions := make([]*models.Question, 0, len(req.Questions))
	keys := make([]*models.AnswerKey, 0, len(req.Questions))
	for i, d := range req.Questions {
		order := d.OrderIndex
		if order == 0 {
			order = i + 1
		}
		q, err := models.NewQuestion(uuid.NewString(), prompt.ID, d.StemText, order, d.Payload())
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)

		key, err := answerKey(q.ID, d)
		if err != nil {
			return nil, err
		}
		if key != nil {
			keys = append(keys, key)
		}
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Prompt().Create(ctx, tx, prompt); err != nil {
			return fmt.Errorf("failed to create prompt: %w", err)
		}
		if err := s.repo.Question().CreateBatch(ctx, tx, questions); err != nil {
			return fmt.Errorf("failed to create questions: %w", err)
		}
		if err := s.repo.Question().CreateAnswerKeys(ctx, tx, keys); err != nil {
			return fmt.Errorf("failed to create answer keys: %w", err)
		}
		return s.auditPublished(ctx, tx, prompt, authorID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Listening test published successfully",
		"prompt_id", prompt.ID,
		"questions", len(questions),
		"published", prompt.IsPublished)

	prompt.Questions = make([]models.Question, len(questions))
	for i, q := range questions {
		prompt.Questions[i] = *q
	}
	return prompt, nil
}

// answerKey splits the scoring data off a draft. OPEN questions have none.
func answerKey(questionID string, d models.QuestionDraft) (*models.AnswerKey, error) {
	switch d.Type {
	case models.QuestionMCQ:
		return &models.AnswerKey{QuestionID: questionID, CorrectIndex: d.CorrectIndex}, nil
	case models.QuestionCloze:
		variants, err := encodeTags(d.Variants)
		if err != nil {
			return nil, err
		}
		return &models.AnswerKey{QuestionID: questionID, Answer: strings.TrimSpace(d.Answer), Variants: variants}, nil
	default:
		return nil, nil
	}
}

func encodeTags(values []string) (datatypes.JSON, error) {
	if len(values) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func (s *authoringService) CreateWritingPrompt(ctx context.Context, req *CreateWritingPromptRequest, authorID string) (*models.Prompt, error) {
	s.logger.Info("Creating writing prompt",
		"title", req.Title,
		"task_type", req.TaskType,
		"author_id", authorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.TaskType == models.TaskListening {
		return nil, ValidationErrors{*NewValidationError("task_type", "must be a writing task", req.TaskType)}
	}
	if err := checkWordBand(req.WordMin, req.WordMax); err != nil {
		return nil, err
	}

	tags, err := encodeTags(req.Tags)
	if err != nil {
		return nil, err
	}
	prompt := &models.Prompt{
		ID:           uuid.NewString(),
		Kind:         models.PromptWriting,
		TaskType:     req.TaskType,
		Title:        req.Title,
		Genre:        req.Genre,
		PromptText:   req.PromptText,
		WordMin:      req.WordMin,
		WordMax:      req.WordMax,
		TimerSeconds: req.TimerSeconds,
		Tags:         tags,
		IsPublished:  req.Publish,
		CreatedBy:    authorID,
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Prompt().Create(ctx, tx, prompt); err != nil {
			return fmt.Errorf("failed to create prompt: %w", err)
		}
		return s.auditPublished(ctx, tx, prompt, authorID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Writing prompt created successfully", "prompt_id", prompt.ID)
	return prompt, nil
}

// CreatePromptVersion snapshots new wording and settings and makes it active.
// Attempts already started keep the version they pinned.
func (s *authoringService) CreatePromptVersion(ctx context.Context, promptID string, req *CreatePromptVersionRequest, authorID string) (*models.PromptVersion, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := checkWordBand(req.WordMin, req.WordMax); err != nil {
		return nil, err
	}

	version := &models.PromptVersion{
		ID:           uuid.NewString(),
		PromptID:     promptID,
		PromptText:   req.PromptText,
		WordMin:      req.WordMin,
		WordMax:      req.WordMax,
		TimerSeconds: req.TimerSeconds,
		CreatedBy:    authorID,
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		prompt, err := s.repo.Prompt().GetByID(ctx, tx, promptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrPromptNotFound
			}
			return fmt.Errorf("failed to get prompt: %w", err)
		}
		if prompt.Kind != models.PromptWriting {
			return ErrPromptKindMismatch
		}
		if err := s.repo.Prompt().CreateVersion(ctx, tx, version); err != nil {
			return fmt.Errorf("failed to create prompt version: %w", err)
		}
		if err := s.repo.Prompt().SetActiveVersion(ctx, tx, promptID, version.ID); err != nil {
			return fmt.Errorf("failed to activate prompt version: %w", err)
		}
		entry := models.NewAuditLog(models.AuditPromptVersionCreated, authorID, "prompt", promptID,
			"Prompt version created", map[string]interface{}{"version_id": version.ID})
		if err := s.repo.Audit().Create(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Prompt version created successfully",
		"prompt_id", promptID,
		"version_id", version.ID)
	return version, nil
}

// auditPublished records a prompt that went live on creation.
func (s *authoringService) auditPublished(ctx context.Context, tx *gorm.DB, prompt *models.Prompt, authorID string) error {
	if !prompt.IsPublished {
		return nil
	}
	entry := models.NewAuditLog(models.AuditPromptPublished, authorID, "prompt", prompt.ID,
		"Prompt published", map[string]interface{}{"kind": prompt.Kind, "title": prompt.Title})
	if err := s.repo.Audit().Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func checkWordBand(wordMin, wordMax *int) error {
	if wordMin != nil && wordMax != nil && *wordMax < *wordMin {
		return ValidationErrors{*NewValidationError("word_max", "must not be less than word_min", *wordMax)}
	}
	return nil
}
