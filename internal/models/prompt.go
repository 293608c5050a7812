package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PromptKind string

const (
	PromptWriting   PromptKind = "writing"
	PromptListening PromptKind = "listening"
)

type TaskType string

const (
	TaskConceptDefinition TaskType = "concept_definition"
	TaskActivityDesign    TaskType = "activity_design"
	TaskListening         TaskType = "listening"
)

// TaskSettings is the word band and time allowance applied to a prompt.
type TaskSettings struct {
	WordMin      int `json:"word_min"`
	WordMax      int `json:"word_max"`
	TimerSeconds int `json:"timer_seconds"`
}

// DefaultTaskSettings are used when neither the prompt nor its active version overrides them.
var DefaultTaskSettings = map[TaskType]TaskSettings{
	TaskConceptDefinition: {WordMin: 100, WordMax: 125, TimerSeconds: 15 * 60},
	TaskActivityDesign:    {WordMin: 150, WordMax: 175, TimerSeconds: 25 * 60},
	TaskListening:         {TimerSeconds: 15 * 60},
}

type Prompt struct {
	ID       string     `json:"id" gorm:"primaryKey;type:uuid"`
	Kind     PromptKind `json:"kind" gorm:"not null;size:20;index" validate:"required,prompt_kind"`
	TaskType TaskType   `json:"task_type" gorm:"not null;size:50;index"`
	Title    string     `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Genre    *string    `json:"genre" gorm:"size:100"`

	// Writing
	PromptText   string `json:"prompt_text" gorm:"type:text"`
	WordMin      *int   `json:"word_min"`
	WordMax      *int   `json:"word_max"`
	TimerSeconds *int   `json:"timer_seconds"`

	// Listening
	TranscriptText   string  `json:"-" gorm:"type:text"`
	AudioStoragePath string  `json:"-" gorm:"size:500"`
	ClozeTemplate    string  `json:"cloze_template" gorm:"type:text"`
	SourceURL        *string `json:"source_url" gorm:"size:500"`

	Tags            datatypes.JSON `json:"tags" gorm:"type:jsonb"` // []string
	IsPublished     bool           `json:"is_published" gorm:"default:false;index"`
	ActiveVersionID *string        `json:"active_version_id" gorm:"type:uuid"`

	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:PromptID"`
}

func (Prompt) TableName() string {
	return "prompts"
}

// PromptVersion pins the wording and settings a learner saw.
type PromptVersion struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	PromptID     string    `json:"prompt_id" gorm:"not null;type:uuid;index"`
	PromptText   string    `json:"prompt_text" gorm:"type:text"`
	WordMin      *int      `json:"word_min"`
	WordMax      *int      `json:"word_max"`
	TimerSeconds *int      `json:"timer_seconds"`
	CreatedBy    string    `json:"created_by" gorm:"size:255"`
	CreatedAt    time.Time `json:"created_at"`
}

func (PromptVersion) TableName() string {
	return "prompt_versions"
}

// EffectiveSettings resolves the word band and timer: version overrides prompt,
// prompt overrides the task defaults.
func EffectiveSettings(p *Prompt, v *PromptVersion) TaskSettings {
	s := DefaultTaskSettings[p.TaskType]

	apply := func(min, max, timer *int) {
		if min != nil {
			s.WordMin = *min
		}
		if max != nil {
			s.WordMax = *max
		}
		if timer != nil {
			s.TimerSeconds = *timer
		}
	}

	apply(p.WordMin, p.WordMax, p.TimerSeconds)
	if v != nil {
		apply(v.WordMin, v.WordMax, v.TimerSeconds)
	}
	return s
}
