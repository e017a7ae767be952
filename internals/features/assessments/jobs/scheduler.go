package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	amodel "trainingku_backend/internals/features/assessments/model"
)

// Enqueuer dipenuhi *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqScheduler mengirim hook setelah commit ke antrean asynq.
type AsynqScheduler struct {
	Client     Enqueuer
	PDFEnabled bool
}

func NewAsynqScheduler(client Enqueuer, pdfEnabled bool) *AsynqScheduler {
	return &AsynqScheduler{Client: client, PDFEnabled: pdfEnabled}
}

func (s *AsynqScheduler) ScheduleEventStart(ctx context.Context, key amodel.EventKey, at time.Time) error {
	task, err := NewStartEventTask(key)
	if err != nil {
		return err
	}
	taskID := StartEventTaskID(key)
	info, err := s.Client.EnqueueContext(ctx, task,
		asynq.ProcessAt(at),
		asynq.TaskID(taskID),
		asynq.MaxRetry(10),
	)
	if err != nil {
		if isDuplicate(err) {
			log.Printf("[AssessmentJobs] ℹ️ start task already scheduled: %s", taskID)
			return nil
		}
		return err
	}
	log.Printf("[AssessmentJobs] ✅ Task scheduled: %s | RunAt=%s", info.ID, at.Format(time.RFC3339))
	return nil
}

func (s *AsynqScheduler) EnqueuePDFRender(ctx context.Context, formID uuid.UUID) error {
	if !s.PDFEnabled {
		log.Printf("[AssessmentJobs] ⚠️ PDF service not configured, skip render form=%s", formID)
		return nil
	}
	task, err := NewRenderPDFTask(formID)
	if err != nil {
		return err
	}
	taskID := RenderPDFTaskID(formID)
	info, err := s.Client.EnqueueContext(ctx, task,
		asynq.TaskID(taskID),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		if isDuplicate(err) {
			return nil
		}
		return err
	}
	log.Printf("[AssessmentJobs] ✅ Task enqueued: %s", info.ID)
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask)
}
