package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/service"
)

type EventStarter interface {
	StartEvent(ctx context.Context, key amodel.EventKey) (int64, error)
}

type PDFAttacher interface {
	AttachPDF(ctx context.Context, formID uuid.UUID, url string) error
}

type PDFRenderer interface {
	Render(ctx context.Context, formID uuid.UUID) (string, error)
}

func HandleStartEvent(starter EventStarter) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p StartEventPayload
		if err := sonic.Unmarshal(t.Payload(), &p); err != nil {
			log.Println("[AssessmentJobs] ❌ Payload decode error:", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		key, err := p.Key()
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		n, err := starter.StartEvent(ctx, key)
		if err != nil {
			if errors.Is(err, service.ErrSubjectXorCourse) {
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			// OCCURRENCE_DATE_NOT_REACHED ikut retry
			return err
		}
		log.Printf("[AssessmentJobs] ▶️ start_event template=%s date=%s started=%d", key.TemplateID, p.OccurrenceDate, n)
		return nil
	}
}

func HandleRenderPDF(renderer PDFRenderer, attacher PDFAttacher) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p RenderPDFPayload
		if err := sonic.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		url, err := renderer.Render(ctx, p.AssessmentID)
		if err != nil {
			log.Printf("[AssessmentJobs] ❌ render failed form=%s: %v", p.AssessmentID, err)
			return err
		}

		if err := attacher.AttachPDF(ctx, p.AssessmentID, url); err != nil {
			if errors.Is(err, service.ErrAssessmentNotFound) || errors.Is(err, service.ErrAssessmentStatusNotAllowed) {
				log.Printf("[AssessmentJobs] ⚠️ skip attach form=%s: %v", p.AssessmentID, err)
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			return err
		}
		log.Printf("[AssessmentJobs] 📄 pdf rendered form=%s", p.AssessmentID)
		return nil
	}
}

// RegisterHandlers mendaftarkan semua handler assessment. renderer nil = PDF dimatikan.
func RegisterHandlers(mux *asynq.ServeMux, svc *service.Service, renderer PDFRenderer) error {
	if svc == nil {
		return errors.New("assessment service is required")
	}
	mux.HandleFunc(TypeStartEvent, HandleStartEvent(svc))
	if renderer != nil {
		mux.HandleFunc(TypeRenderPDF, HandleRenderPDF(renderer, svc))
	}
	return nil
}

// StartWorker menjalankan asynq server non-blocking; panggil Shutdown saat aplikasi berhenti.
func StartWorker(opt asynq.RedisClientOpt, mux *asynq.ServeMux, concurrency int) (*asynq.Server, error) {
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{"default": 1},
	})
	if err := srv.Start(mux); err != nil {
		return nil, err
	}
	log.Printf("[AssessmentJobs] ✅ worker started concurrency=%d", concurrency)
	return srv, nil
}
