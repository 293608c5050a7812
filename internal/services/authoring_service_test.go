package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/practice-service/internal/cloze"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const catTranscript = "The cat sat on the mat"

func newAuthoring(repo *MockRepository) AuthoringService {
	return NewAuthoringService(repo, cloze.DefaultSuggestOptions(), testLogger(), validator.New())
}

func TestAuthoringService_BuildCloze(t *testing.T) {
	svc := newAuthoring(newMockRepository())

	tpl, err := svc.BuildCloze(context.Background(), &BuildClozeRequest{
		Transcript: catTranscript,
		Spans: []cloze.Span{
			{Start: 19, End: 22},
			{Start: 4, End: 7},
			{Start: 5, End: 9},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "The [ 1 ] sat on the [ 2 ]", tpl.Text)
	require.Len(t, tpl.GapItems, 2)
	assert.Equal(t, "cat", tpl.GapItems[0].AnswerText)
	assert.Equal(t, "mat", tpl.GapItems[1].AnswerText)
	require.Len(t, tpl.Dropped, 1)
	assert.Equal(t, cloze.DropOverlap, tpl.Dropped[0].Reason)
}

func TestAuthoringService_BuildClozeRequiresTranscript(t *testing.T) {
	svc := newAuthoring(newMockRepository())

	_, err := svc.BuildCloze(context.Background(), &BuildClozeRequest{})
	assert.True(t, IsValidation(err))
}

func TestAuthoringService_SuggestGaps(t *testing.T) {
	svc := newAuthoring(newMockRepository())

	resp, err := svc.SuggestGaps(context.Background(), &SuggestGapsRequest{
		Transcript: "Photosynthesis converts sunlight into chemical energy for plants",
		Limit:      2,
	})
	require.NoError(t, err)

	require.Len(t, resp.Spans, 2)
	assert.Equal(t, "Photosynthesis", resp.Spans[0].Text)
	assert.Len(t, resp.Template.GapItems, 2)
}

func TestAuthoringService_PublishListeningTest(t *testing.T) {
	repo := newMockRepository()
	svc := newAuthoring(repo)
	ctx := context.Background()

	var created *models.Prompt
	repo.prompt.On("Create", ctx, mock.Anything, mock.AnythingOfType("*models.Prompt")).
		Run(func(args mock.Arguments) { created = args.Get(2).(*models.Prompt) }).
		Return(nil)
	var questions []*models.Question
	repo.question.On("CreateBatch", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { questions = args.Get(2).([]*models.Question) }).
		Return(nil)
	var keys []*models.AnswerKey
	repo.question.On("CreateAnswerKeys", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { keys = args.Get(2).([]*models.AnswerKey) }).
		Return(nil)

	prompt, err := svc.PublishListeningTest(ctx, &CreateListeningTestRequest{
		Title:            "Cats",
		Transcript:       catTranscript,
		AudioStoragePath: "listening/cats.mp3",
		Spans:            []cloze.Span{{Start: 4, End: 7}, {Start: 19, End: 22}},
		Questions: []models.QuestionDraft{
			{Type: models.QuestionMCQ, StemText: "Where?", Options: []string{"mat", "bed", "sofa", "floor"}, CorrectIndex: intPtr(0)},
			{Type: models.QuestionCloze, GapIndex: 1},
			{Type: models.QuestionCloze, GapIndex: 2, Variants: []string{"rug"}},
			{Type: models.QuestionOpen, StemText: "Describe the cat"},
		},
		Publish: true,
	}, "admin-1")
	require.NoError(t, err)

	assert.Same(t, created, prompt)
	assert.Equal(t, models.PromptListening, prompt.Kind)
	assert.Equal(t, "The [ 1 ] sat on the [ 2 ]", prompt.ClozeTemplate)
	assert.True(t, prompt.IsPublished)
	assert.Equal(t, "admin-1", prompt.CreatedBy)
	assert.Len(t, prompt.Questions, 4)
	require.Len(t, repo.audit.entries, 1)
	assert.Equal(t, models.AuditPromptPublished, repo.audit.entries[0].EventType)

	require.Len(t, questions, 4)
	assert.Equal(t, 1, questions[0].OrderIndex)
	assert.Equal(t, prompt.ID, questions[0].PromptID)

	require.Len(t, keys, 3, "OPEN questions carry no key")
	letter, ok := keys[0].CorrectLetter()
	assert.True(t, ok)
	assert.Equal(t, "A", letter)
	assert.Equal(t, "cat", keys[1].Answer, "empty CLOZE answers come from the gap")
	assert.Equal(t, "mat", keys[2].Answer)
	assert.Equal(t, []string{"rug"}, keys[2].VariantList())
}

func TestAuthoringService_RejectsMarkersInTranscript(t *testing.T) {
	svc := newAuthoring(newMockRepository())
	ctx := context.Background()
	transcript := "Read section [ 3 ] about the cat"

	assertTranscriptError := func(t *testing.T, err error) {
		t.Helper()
		require.True(t, IsValidation(err))
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs, 1)
		assert.Equal(t, "transcript", verrs[0].Field)
	}

	_, err := svc.BuildCloze(ctx, &BuildClozeRequest{Transcript: transcript, Spans: []cloze.Span{{Start: 29, End: 32}}})
	assertTranscriptError(t, err)

	_, err = svc.SuggestGaps(ctx, &SuggestGapsRequest{Transcript: transcript})
	assertTranscriptError(t, err)

	_, err = svc.PublishListeningTest(ctx, &CreateListeningTestRequest{
		Title:            "Markers",
		Transcript:       transcript,
		AudioStoragePath: "a.mp3",
		Spans:            []cloze.Span{{Start: 29, End: 32}},
		Questions:        []models.QuestionDraft{{Type: models.QuestionCloze, GapIndex: 1}},
	}, "admin-1")
	assertTranscriptError(t, err)
}

func TestAuthoringService_PublishListeningTestValidation(t *testing.T) {
	svc := newAuthoring(newMockRepository())
	ctx := context.Background()

	t.Run("cloze without template", func(t *testing.T) {
		_, err := svc.PublishListeningTest(ctx, &CreateListeningTestRequest{
			Title:            "No template",
			Transcript:       catTranscript,
			AudioStoragePath: "a.mp3",
			Questions:        []models.QuestionDraft{{Type: models.QuestionCloze, GapIndex: 1, Answer: "cat"}},
		}, "admin-1")
		assert.ErrorIs(t, err, ErrClozeTemplateRequired)
	})

	t.Run("gap missing from template", func(t *testing.T) {
		_, err := svc.PublishListeningTest(ctx, &CreateListeningTestRequest{
			Title:            "Missing gap",
			Transcript:       catTranscript,
			AudioStoragePath: "a.mp3",
			ClozeTemplate:    "The [ 1 ] sat on the mat",
			Questions:        []models.QuestionDraft{{Type: models.QuestionCloze, GapIndex: 3, Answer: "x"}},
		}, "admin-1")
		assert.True(t, IsValidation(err))
	})

	t.Run("mcq with three options", func(t *testing.T) {
		_, err := svc.PublishListeningTest(ctx, &CreateListeningTestRequest{
			Title:            "Bad MCQ",
			Transcript:       catTranscript,
			AudioStoragePath: "a.mp3",
			Questions: []models.QuestionDraft{
				{Type: models.QuestionMCQ, Options: []string{"a", "b", "c"}, CorrectIndex: intPtr(0)},
			},
		}, "admin-1")
		assert.True(t, IsValidation(err))
	})
}

func TestAuthoringService_CreateWritingPrompt(t *testing.T) {
	repo := newMockRepository()
	svc := newAuthoring(repo)
	ctx := context.Background()

	repo.prompt.On("Create", ctx, mock.Anything, mock.AnythingOfType("*models.Prompt")).Return(nil)

	prompt, err := svc.CreateWritingPrompt(ctx, &CreateWritingPromptRequest{
		TaskType:   models.TaskConceptDefinition,
		Title:      "Define scaffolding",
		PromptText: "Define scaffolding in your own words.",
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.PromptWriting, prompt.Kind)
	assert.NotEmpty(t, prompt.ID)

	_, err = svc.CreateWritingPrompt(ctx, &CreateWritingPromptRequest{
		TaskType:   models.TaskListening,
		Title:      "Wrong",
		PromptText: "x",
	}, "admin-1")
	assert.True(t, IsValidation(err))

	_, err = svc.CreateWritingPrompt(ctx, &CreateWritingPromptRequest{
		TaskType:   models.TaskActivityDesign,
		Title:      "Band",
		PromptText: "x",
		WordMin:    intPtr(200),
		WordMax:    intPtr(100),
	}, "admin-1")
	assert.True(t, IsValidation(err))

	repo.prompt.AssertNumberOfCalls(t, "Create", 1)
}

func TestAuthoringService_CreatePromptVersion(t *testing.T) {
	repo := newMockRepository()
	svc := newAuthoring(repo)
	ctx := context.Background()

	repo.prompt.On("GetByID", ctx, mock.Anything, "p1").
		Return(&models.Prompt{ID: "p1", Kind: models.PromptWriting}, nil)
	repo.prompt.On("CreateVersion", ctx, mock.Anything, mock.AnythingOfType("*models.PromptVersion")).Return(nil)
	repo.prompt.On("SetActiveVersion", ctx, mock.Anything, "p1", mock.AnythingOfType("string")).Return(nil)

	version, err := svc.CreatePromptVersion(ctx, "p1", &CreatePromptVersionRequest{
		PromptText: "Revised wording",
		WordMin:    intPtr(120),
		WordMax:    intPtr(140),
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", version.PromptID)
	repo.prompt.AssertCalled(t, "SetActiveVersion", ctx, mock.Anything, "p1", version.ID)

	repo.prompt.On("GetByID", ctx, mock.Anything, "listen").
		Return(&models.Prompt{ID: "listen", Kind: models.PromptListening}, nil)
	_, err = svc.CreatePromptVersion(ctx, "listen", &CreatePromptVersionRequest{PromptText: "x"}, "admin-1")
	assert.ErrorIs(t, err, ErrPromptKindMismatch)
}
