package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/acadplan/acadplan-api/internal/models"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
	"github.com/acadplan/acadplan-api/pkg/export"
	"github.com/acadplan/acadplan-api/pkg/jobs"
	"github.com/acadplan/acadplan-api/pkg/storage"
)

const exportJobType = "schedule_export"

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath, token string, expiresAt time.Time) error
	MarkFailed(ctx context.Context, id, message string) error
}

type exportScheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
}

type exportEntryRepository interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleEntry, error)
}

type exportSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type exportUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportQueueConfig tunes the background export worker pool.
type ExportQueueConfig struct {
	Workers    int
	MaxRetries int
}

// ExportService renders schedules to CSV or PDF through a background queue
// and hands out HMAC-signed download tokens.
type ExportService struct {
	exports   exportJobRepository
	schedules exportScheduleRepository
	entries   exportEntryRepository
	subjects  exportSubjectRepository
	users     exportUserRepository
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	logger    *zap.Logger
}

// NewExportService constructs an ExportService and its worker queue. Call
// Start before enqueuing and Stop on shutdown.
func NewExportService(
	exports exportJobRepository,
	schedules exportScheduleRepository,
	entries exportEntryRepository,
	subjects exportSubjectRepository,
	users exportUserRepository,
	fileStore fileStorage,
	signer *storage.SignedURLSigner,
	queueCfg ExportQueueConfig,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		exports:   exports,
		schedules: schedules,
		entries:   entries,
		subjects:  subjects,
		users:     users,
		storage:   fileStore,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("exports", s.handleJob, jobs.QueueConfig{
		Workers:    queueCfg.Workers,
		MaxRetries: queueCfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue records a queued export job for a schedule and pushes it onto the
// worker queue.
func (s *ExportService) Enqueue(ctx context.Context, institutionID, userID, scheduleID string, format models.ExportFormat) (*models.ExportJob, error) {
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	sched, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if sched.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}

	job := models.ExportJob{
		InstitutionID: institutionID,
		ScheduleID:    scheduleID,
		RequestedBy:   userID,
		Format:        format,
	}
	if err := s.exports.Create(ctx, &job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType, Payload: job.ID}); err != nil {
		if markErr := s.exports.MarkFailed(ctx, job.ID, "queue unavailable"); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &job, nil
}

// Get returns an export job's status for its institution.
func (s *ExportService) Get(ctx context.Context, institutionID, id string) (*models.ExportJob, error) {
	job, err := s.exports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}
	return job, nil
}

// ResolveDownload validates a signed token and opens the rendered file. The
// returned filename is the client-facing download name.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	job, err := s.exports.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.ErrNotFound
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusCompleted || job.FilePath == nil || *job.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return file, fmt.Sprintf("schedule-%s.%s", job.ScheduleID, job.Format), nil
}

func (s *ExportService) handleJob(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok || jobID == "" {
		s.logger.Error("export job with malformed payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.process(ctx, jobID); err != nil {
		if markErr := s.exports.MarkFailed(ctx, jobID, err.Error()); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(markErr))
		}
		return err
	}
	return nil
}

func (s *ExportService) process(ctx context.Context, jobID string) error {
	job, err := s.exports.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job: %w", err)
	}
	if err := s.exports.MarkProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("mark export processing: %w", err)
	}

	sched, err := s.schedules.FindByID(ctx, job.ScheduleID)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	dataset, err := s.buildDataset(ctx, job.ScheduleID)
	if err != nil {
		return err
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, sched.Name)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return fmt.Errorf("render export: %w", err)
	}

	filename := fmt.Sprintf("%s/%s.%s", job.InstitutionID, job.ID, job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return fmt.Errorf("store export: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign export url: %w", err)
	}
	if err := s.exports.MarkCompleted(ctx, job.ID, relPath, token, expiresAt); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}

	s.logger.Info("export completed",
		zap.String("job_id", job.ID),
		zap.String("schedule_id", job.ScheduleID),
		zap.String("format", string(job.Format)))
	return nil
}

var dayNames = map[int]string{
	1: "Monday", 2: "Tuesday", 3: "Wednesday", 4: "Thursday",
	5: "Friday", 6: "Saturday", 7: "Sunday",
}

func (s *ExportService) buildDataset(ctx context.Context, scheduleID string) (export.Dataset, error) {
	entries, err := s.entries.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load entries: %w", err)
	}

	subjectNames := make(map[string]string)
	teacherNames := make(map[string]string)

	dataset := export.Dataset{
		Headers: []string{"Day", "Start", "End", "Subject", "Teacher", "Room"},
	}
	for _, entry := range entries {
		subjectName, ok := subjectNames[entry.SubjectID]
		if !ok {
			if subject, err := s.subjects.FindByID(ctx, entry.SubjectID); err == nil {
				subjectName = subject.Name
			} else {
				subjectName = entry.SubjectID
			}
			subjectNames[entry.SubjectID] = subjectName
		}
		teacherName, ok := teacherNames[entry.TeacherID]
		if !ok {
			if teacher, err := s.users.FindByID(ctx, entry.TeacherID); err == nil {
				teacherName = teacher.FullName
			} else {
				teacherName = entry.TeacherID
			}
			teacherNames[entry.TeacherID] = teacherName
		}

		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":     dayNames[entry.DayOfWeek],
			"Start":   entry.StartTime,
			"End":     entry.EndTime,
			"Subject": subjectName,
			"Teacher": teacherName,
			"Room":    roomOf(entry),
		})
	}
	return dataset, nil
}

// CleanupExpired removes rendered files older than the TTL. Wired to a ticker
// in main.
func (s *ExportService) CleanupExpired(ttl time.Duration) {
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("export cleanup removed files", zap.Int("count", len(deleted)))
	}
}
