package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/cloze"
	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/storage"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

// ServiceManager groups the services the HTTP layer depends on.
type ServiceManager interface {
	Authoring() AuthoringService
	Listening() ListeningService
	Writing() WritingService
	Review() ReviewService
	Export() ExportService
	Sessions() *SessionRegistry
}

type ManagerConfig struct {
	Suggest          cloze.SuggestOptions
	MaxPlays         int
	AutosaveDebounce time.Duration
	Signer           *storage.AudioSigner
	Drafts           DraftStores
}

type serviceManager struct {
	authoring AuthoringService
	listening ListeningService
	writing   WritingService
	review    ReviewService
	export    ExportService
	sessions  *SessionRegistry
}

func NewServiceManager(
	repo repositories.Repository,
	publisher events.EventPublisher,
	cfg ManagerConfig,
	logger *slog.Logger,
	validator *validator.Validator,
) ServiceManager {
	writing := NewWritingService(repo, publisher, logger, validator)
	return &serviceManager{
		authoring: NewAuthoringService(repo, cfg.Suggest, logger, validator),
		listening: NewListeningService(repo, publisher, cfg.Signer, cfg.MaxPlays, logger, validator),
		writing:   writing,
		review:    NewReviewService(repo, publisher, logger, validator),
		export:    NewExportService(repo, logger, validator),
		sessions:  NewSessionRegistry(writing, cfg.Drafts, cfg.AutosaveDebounce, logger, validator),
	}
}

func (m *serviceManager) Authoring() AuthoringService { return m.authoring }
func (m *serviceManager) Listening() ListeningService { return m.listening }
func (m *serviceManager) Writing() WritingService     { return m.writing }
func (m *serviceManager) Review() ReviewService       { return m.review }
func (m *serviceManager) Export() ExportService       { return m.export }
func (m *serviceManager) Sessions() *SessionRegistry  { return m.sessions }
