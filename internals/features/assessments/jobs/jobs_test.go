package jobs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/service"
)

type enqueued struct {
	task *asynq.Task
	opts map[asynq.OptionType]any
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	seen  map[string]bool
	tasks []enqueued
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	e := enqueued{task: task, opts: map[asynq.OptionType]any{}}
	for _, o := range opts {
		e.opts[o.Type()] = o.Value()
	}
	id, _ := e.opts[asynq.TaskIDOpt].(string)
	if id != "" && f.seen[id] {
		return nil, asynq.ErrTaskIDConflict
	}
	f.seen[id] = true
	f.tasks = append(f.tasks, e)
	return &asynq.TaskInfo{ID: id, Type: task.Type()}, nil
}

func eventKey() amodel.EventKey {
	subject := uuid.New()
	return amodel.EventKey{
		SubjectID:      &subject,
		TemplateID:     uuid.New(),
		OccurrenceDate: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
	}
}

func TestScheduleEventStart(t *testing.T) {
	q := &fakeEnqueuer{}
	s := NewAsynqScheduler(q, true)
	key := eventKey()
	at := time.Date(2026, 3, 11, 17, 0, 0, 0, time.UTC)

	require.NoError(t, s.ScheduleEventStart(context.Background(), key, at))
	// event yang sama dijadwalkan lagi → conflict ditelan
	require.NoError(t, s.ScheduleEventStart(context.Background(), key, at))
	require.Len(t, q.tasks, 1)

	got := q.tasks[0]
	assert.Equal(t, TypeStartEvent, got.task.Type())
	assert.Equal(t, StartEventTaskID(key), got.opts[asynq.TaskIDOpt])
	assert.Equal(t, at, got.opts[asynq.ProcessAtOpt])

	var p StartEventPayload
	require.NoError(t, sonic.Unmarshal(got.task.Payload(), &p))
	assert.Equal(t, "2026-03-12", p.OccurrenceDate)
	back, err := p.Key()
	require.NoError(t, err)
	assert.Equal(t, *key.SubjectID, *back.SubjectID)
	assert.Nil(t, back.CourseID)
	assert.True(t, key.OccurrenceDate.Equal(back.OccurrenceDate))
}

func TestStartEventTaskIDScope(t *testing.T) {
	key := eventKey()
	course := uuid.New()
	courseKey := key
	courseKey.SubjectID, courseKey.CourseID = nil, &course

	assert.Contains(t, StartEventTaskID(key), "subject:"+key.SubjectID.String())
	assert.Contains(t, StartEventTaskID(courseKey), "course:"+course.String())
	assert.NotEqual(t, StartEventTaskID(key), StartEventTaskID(courseKey))
}

func TestEnqueuePDFRender(t *testing.T) {
	formID := uuid.New()

	off := &fakeEnqueuer{}
	require.NoError(t, NewAsynqScheduler(off, false).EnqueuePDFRender(context.Background(), formID))
	assert.Empty(t, off.tasks)

	on := &fakeEnqueuer{}
	s := NewAsynqScheduler(on, true)
	require.NoError(t, s.EnqueuePDFRender(context.Background(), formID))
	require.NoError(t, s.EnqueuePDFRender(context.Background(), formID))
	require.Len(t, on.tasks, 1)
	assert.Equal(t, TypeRenderPDF, on.tasks[0].task.Type())
	assert.Equal(t, RenderPDFTaskID(formID), on.tasks[0].opts[asynq.TaskIDOpt])
}

/* =========================
   Handlers
========================= */

type fakeStarter struct {
	keys []amodel.EventKey
	err  error
}

func (f *fakeStarter) StartEvent(_ context.Context, key amodel.EventKey) (int64, error) {
	f.keys = append(f.keys, key)
	return 3, f.err
}

type fakeAttacher struct {
	urls map[uuid.UUID]string
	err  error
}

func (f *fakeAttacher) AttachPDF(_ context.Context, formID uuid.UUID, url string) error {
	if f.err != nil {
		return f.err
	}
	if f.urls == nil {
		f.urls = map[uuid.UUID]string{}
	}
	f.urls[formID] = url
	return nil
}

func TestHandleStartEvent(t *testing.T) {
	key := eventKey()
	task, err := NewStartEventTask(key)
	require.NoError(t, err)

	starter := &fakeStarter{}
	require.NoError(t, HandleStartEvent(starter)(context.Background(), task))
	require.Len(t, starter.keys, 1)
	assert.True(t, key.OccurrenceDate.Equal(starter.keys[0].OccurrenceDate))

	notYet := &fakeStarter{err: service.ErrOccurrenceDateNotReached}
	err = HandleStartEvent(notYet)(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))

	bad := asynq.NewTask(TypeStartEvent, []byte("{"))
	err = HandleStartEvent(starter)(context.Background(), bad)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRenderPDF(t *testing.T) {
	formID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/render", r.URL.Path)
		var req renderRequest
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(raw, &req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://files.example/` + req.AssessmentID.String() + `.pdf"}`))
	}))
	defer srv.Close()

	task, err := NewRenderPDFTask(formID)
	require.NoError(t, err)

	attacher := &fakeAttacher{}
	require.NoError(t, HandleRenderPDF(NewPDFClient(srv.URL+"/", time.Second), attacher)(context.Background(), task))
	assert.Equal(t, "https://files.example/"+formID.String()+".pdf", attacher.urls[formID])

	stale := &fakeAttacher{err: service.ErrAssessmentStatusNotAllowed}
	err = HandleRenderPDF(NewPDFClient(srv.URL, time.Second), stale)(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPDFClientErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	_, err := NewPDFClient(failing.URL, time.Second).Render(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "502")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":""}`))
	}))
	defer empty.Close()
	_, err = NewPDFClient(empty.URL, time.Second).Render(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "empty url")
}

func TestRegisterHandlersRequiresService(t *testing.T) {
	assert.Error(t, RegisterHandlers(asynq.NewServeMux(), nil, nil))
}
