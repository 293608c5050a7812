package validator

import (
	"errors"
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/practice-service/internal/errors"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct tag validation with question content checks.
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a validator with the custom tags registered.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate runs tag validation and converts failures to ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	err := v.ValidateStruct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return apperrors.ToValidationErrors(fieldErrs)
	}
	return err
}

func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("attempt_mode", validateAttemptMode)
	validate.RegisterValidation("prompt_kind", validatePromptKind)
	validate.RegisterValidation("task_type", validateTaskType)
	validate.RegisterValidation("option_letter", validateOptionLetter)
	validate.RegisterValidation("rubric_score", validateRubricScore)

	// Report json names in errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	switch models.QuestionType(fl.Field().String()) {
	case models.QuestionMCQ, models.QuestionOpen, models.QuestionCloze:
		return true
	}
	return false
}

func validateAttemptMode(fl validator.FieldLevel) bool {
	switch models.AttemptMode(fl.Field().String()) {
	case models.ModePractice, models.ModeExam:
		return true
	}
	return false
}

func validatePromptKind(fl validator.FieldLevel) bool {
	switch models.PromptKind(fl.Field().String()) {
	case models.PromptWriting, models.PromptListening:
		return true
	}
	return false
}

func validateTaskType(fl validator.FieldLevel) bool {
	_, ok := models.DefaultTaskSettings[models.TaskType(fl.Field().String())]
	return ok
}

func validateOptionLetter(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return len(value) == 1 && value[0] >= 'A' && value[0] < 'A'+models.MCQOptionCount
}

func validateRubricScore(fl validator.FieldLevel) bool {
	var score float64
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		score = fl.Field().Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		score = float64(fl.Field().Int())
	default:
		return false
	}
	return score >= 0 && score <= 10
}
