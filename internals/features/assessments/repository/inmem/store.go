// file: internals/features/assessments/repository/inmem/store.go
package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trainingku_backend/internals/features/assessments/lifecycle"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/repository"
	dmodel "trainingku_backend/internals/features/directory/model"
)

/*
   Store in-memory untuk test. Satu mutex menserialkan semua transaksi
   (setara row lock), dan transaksi yang gagal di-rollback dari snapshot.
*/

type Store struct {
	mu sync.Mutex

	forms    map[uuid.UUID]amodel.AssessmentFormModel
	sections map[uuid.UUID]amodel.AssessmentSectionModel
	values   map[uuid.UUID]amodel.AssessmentValueModel
	seq      map[uuid.UUID]int
	next     int
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		forms:    map[uuid.UUID]amodel.AssessmentFormModel{},
		sections: map[uuid.UUID]amodel.AssessmentSectionModel{},
		values:   map[uuid.UUID]amodel.AssessmentValueModel{},
		seq:      map[uuid.UUID]int{},
	}
}

type snapshot struct {
	forms    map[uuid.UUID]amodel.AssessmentFormModel
	sections map[uuid.UUID]amodel.AssessmentSectionModel
	values   map[uuid.UUID]amodel.AssessmentValueModel
	seq      map[uuid.UUID]int
	next     int
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		forms:    cloneMap(s.forms),
		sections: cloneMap(s.sections),
		values:   cloneMap(s.values),
		seq:      cloneMap(s.seq),
		next:     s.next,
	}
}

func (s *Store) restore(sn snapshot) {
	s.forms, s.sections, s.values, s.seq, s.next = sn.forms, sn.sections, sn.values, sn.seq, sn.next
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sn := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.restore(sn)
		return err
	}
	return nil
}

/* =========================
   Reads
========================= */

func (s *Store) FindForm(_ context.Context, id uuid.UUID) (*amodel.AssessmentFormModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (s *Store) ListForms(_ context.Context, f repository.FormFilter) ([]amodel.AssessmentFormModel, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []amodel.AssessmentFormModel
	for _, form := range s.forms {
		if !visible(&form, f.Visibility) || !matchesForm(&form, f) {
			continue
		}
		rows = append(rows, form)
	}
	sortForms(rows, f.SortBy, f.SortOrder)
	total := int64(len(rows))
	return paginate(rows, f.Limit, f.Offset), total, nil
}

func (s *Store) ListSections(_ context.Context, formID uuid.UUID) ([]amodel.AssessmentSectionModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sectionsOf(formID), nil
}

func (s *Store) ListValuesBySections(_ context.Context, sectionIDs []uuid.UUID) ([]amodel.AssessmentValueModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valuesOf(sectionIDs), nil
}

func (s *Store) FindExisting(_ context.Context, templateID uuid.UUID, occurrence time.Time, scope dmodel.EntityScope, traineeIDs []uuid.UUID) ([]amodel.AssessmentFormModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findExisting(templateID, occurrence, scope, traineeIDs), nil
}

func (s *Store) findExisting(templateID uuid.UUID, occurrence time.Time, scope dmodel.EntityScope, traineeIDs []uuid.UUID) []amodel.AssessmentFormModel {
	wanted := make(map[uuid.UUID]bool, len(traineeIDs))
	for _, id := range traineeIDs {
		wanted[id] = true
	}
	key := amodel.EventKey{SubjectID: scope.SubjectID, CourseID: scope.CourseID, TemplateID: templateID, OccurrenceDate: occurrence}

	var out []amodel.AssessmentFormModel
	for _, f := range s.forms {
		if wanted[f.AssessmentFormTraineeID] && f.AssessmentFormStatus != amodel.FormCancelled && key.Matches(&f) {
			out = append(out, f)
		}
	}
	return out
}

func (s *Store) ListEvents(_ context.Context, f repository.EventFilter) ([]repository.EventRow, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type group struct {
		row      repository.EventRow
		trainers map[uuid.UUID]bool
	}
	groups := map[string]*group{}
	var order []string

	for _, form := range s.forms {
		if !inScope(&form, f.Visibility) || !matchesEvent(&form, f) {
			continue
		}
		k := eventKeyString(form.EventKey())
		g, ok := groups[k]
		if !ok {
			g = &group{row: repository.EventRow{Key: form.EventKey(), EventName: form.AssessmentFormEventName}, trainers: map[uuid.UUID]bool{}}
			groups[k] = g
			order = append(order, k)
		}
		if form.AssessmentFormEventName < g.row.EventName {
			g.row.EventName = form.AssessmentFormEventName
		}
		g.row.TotalTrainees++
		switch form.AssessmentFormStatus {
		case amodel.FormNotStarted:
			g.row.NotStarted++
		case amodel.FormApproved:
			g.row.Approved++
		case amodel.FormRejected:
			g.row.Rejected++
		case amodel.FormCancelled:
			g.row.Cancelled++
		}
		if rt := form.AssessmentFormResultText; rt != nil {
			switch *rt {
			case amodel.ResultPass:
				g.row.Passed++
			case amodel.ResultFail:
				g.row.Failed++
			}
		}
		for _, sec := range s.sectionsOf(form.AssessmentFormID) {
			if by := sec.AssessmentSectionAssessedByID; by != nil && *by != form.AssessmentFormTraineeID {
				g.trainers[*by] = true
			}
		}
	}

	var rows []repository.EventRow
	for _, k := range order {
		g := groups[k]
		g.row.TotalTrainers = len(g.trainers)
		g.row.Status = lifecycle.DeriveEventStatus(lifecycle.EventCounts{
			Total:      g.row.TotalTrainees,
			NotStarted: g.row.NotStarted,
			Approved:   g.row.Approved,
			Cancelled:  g.row.Cancelled,
		})
		if len(f.Statuses) > 0 && !containsEventStatus(f.Statuses, g.row.Status) {
			continue
		}
		if containsEventStatus(f.HideStatuses, g.row.Status) {
			continue
		}
		rows = append(rows, g.row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Key, rows[j].Key
		if !a.OccurrenceDate.Equal(b.OccurrenceDate) {
			return a.OccurrenceDate.After(b.OccurrenceDate)
		}
		return a.TemplateID.String() < b.TemplateID.String()
	})
	total := int64(len(rows))
	return paginate(rows, f.Limit, f.Offset), total, nil
}

/* =========================
   Idempotent writes
========================= */

func (s *Store) StartDue(_ context.Context, today time.Time, updatedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, f := range s.forms {
		if f.AssessmentFormStatus == amodel.FormNotStarted && !f.AssessmentFormOccurrenceDate.After(today) {
			f.AssessmentFormStatus = amodel.FormOnGoing
			f.AssessmentFormUpdatedAt = updatedAt
			s.forms[id] = f
			n++
		}
	}
	return n, nil
}

func (s *Store) StartEvent(_ context.Context, key amodel.EventKey, updatedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flipEvent(key, amodel.FormOnGoing, uuid.Nil, updatedAt), nil
}

func (s *Store) ArchiveEvent(_ context.Context, key amodel.EventKey, actorID uuid.UUID, updatedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flipEvent(key, amodel.FormCancelled, actorID, updatedAt), nil
}

func (s *Store) flipEvent(key amodel.EventKey, to amodel.FormStatus, actorID uuid.UUID, at time.Time) int64 {
	var n int64
	for id, f := range s.forms {
		if f.AssessmentFormStatus != amodel.FormNotStarted || !key.Matches(&f) {
			continue
		}
		f.AssessmentFormStatus = to
		f.AssessmentFormUpdatedAt = at
		if actorID != uuid.Nil {
			by := actorID
			f.AssessmentFormUpdatedByID = &by
		}
		s.forms[id] = f
		n++
	}
	return n
}

func (s *Store) AttachPDF(_ context.Context, formID uuid.UUID, url string, updatedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[formID]
	if !ok || f.AssessmentFormStatus != amodel.FormApproved {
		return 0, nil
	}
	u := url
	f.AssessmentFormPDFURL = &u
	f.AssessmentFormUpdatedAt = updatedAt
	s.forms[formID] = f
	return 1, nil
}

/* =========================
   Internal helpers (mu held)
========================= */

func (s *Store) sectionsOf(formID uuid.UUID) []amodel.AssessmentSectionModel {
	var out []amodel.AssessmentSectionModel
	for _, sec := range s.sections {
		if sec.AssessmentSectionFormID == formID {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.seq[out[i].AssessmentSectionID] < s.seq[out[j].AssessmentSectionID]
	})
	return out
}

func (s *Store) valuesOf(sectionIDs []uuid.UUID) []amodel.AssessmentValueModel {
	want := make(map[uuid.UUID]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		want[id] = true
	}
	var out []amodel.AssessmentValueModel
	for _, v := range s.values {
		if want[v.AssessmentValueSectionID] {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.seq[out[i].AssessmentValueID] < s.seq[out[j].AssessmentValueID]
	})
	return out
}

func visible(f *amodel.AssessmentFormModel, v repository.Visibility) bool {
	return inScope(f, v) && !f.AssessmentFormStatus.In(v.ExcludeStatuses...)
}

// inScope: scope trainee/entitas saja, tanpa filter status form.
func inScope(f *amodel.AssessmentFormModel, v repository.Visibility) bool {
	if v.TraineeID != nil && f.AssessmentFormTraineeID != *v.TraineeID {
		return false
	}
	if v.Restricted {
		ok := (f.AssessmentFormSubjectID != nil && containsID(v.SubjectIDs, *f.AssessmentFormSubjectID)) ||
			(f.AssessmentFormCourseID != nil && containsID(v.CourseIDs, *f.AssessmentFormCourseID))
		if !ok {
			return false
		}
	}
	return true
}

func matchesForm(f *amodel.AssessmentFormModel, flt repository.FormFilter) bool {
	if len(flt.Statuses) > 0 && !f.AssessmentFormStatus.In(flt.Statuses...) {
		return false
	}
	if flt.TemplateID != nil && f.AssessmentFormTemplateID != *flt.TemplateID {
		return false
	}
	if flt.SubjectID != nil && (f.AssessmentFormSubjectID == nil || *f.AssessmentFormSubjectID != *flt.SubjectID) {
		return false
	}
	if flt.CourseID != nil && (f.AssessmentFormCourseID == nil || *f.AssessmentFormCourseID != *flt.CourseID) {
		return false
	}
	if flt.TraineeID != nil && f.AssessmentFormTraineeID != *flt.TraineeID {
		return false
	}
	if !inRange(f.AssessmentFormOccurrenceDate, flt.OccurrenceFrom, flt.OccurrenceTo) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(flt.Search)); term != "" &&
		!strings.Contains(strings.ToLower(f.AssessmentFormName), term) {
		return false
	}
	if flt.Event != nil && !flt.Event.Matches(f) {
		return false
	}
	return true
}

func matchesEvent(f *amodel.AssessmentFormModel, flt repository.EventFilter) bool {
	if flt.TemplateID != nil && f.AssessmentFormTemplateID != *flt.TemplateID {
		return false
	}
	if flt.SubjectID != nil && (f.AssessmentFormSubjectID == nil || *f.AssessmentFormSubjectID != *flt.SubjectID) {
		return false
	}
	if flt.CourseID != nil && (f.AssessmentFormCourseID == nil || *f.AssessmentFormCourseID != *flt.CourseID) {
		return false
	}
	if !inRange(f.AssessmentFormOccurrenceDate, flt.OccurrenceFrom, flt.OccurrenceTo) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(flt.Search)); term != "" &&
		!strings.Contains(strings.ToLower(f.AssessmentFormEventName), term) {
		return false
	}
	return true
}

func inRange(d time.Time, from, to *time.Time) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

func sortForms(rows []amodel.AssessmentFormModel, by, order string) {
	asc := strings.EqualFold(order, "asc")
	less := func(a, b *amodel.AssessmentFormModel) (bool, bool) {
		switch by {
		case "occurrence_date":
			return a.AssessmentFormOccurrenceDate.Before(b.AssessmentFormOccurrenceDate), a.AssessmentFormOccurrenceDate.Equal(b.AssessmentFormOccurrenceDate)
		case "name":
			return a.AssessmentFormName < b.AssessmentFormName, a.AssessmentFormName == b.AssessmentFormName
		case "status":
			return a.AssessmentFormStatus < b.AssessmentFormStatus, a.AssessmentFormStatus == b.AssessmentFormStatus
		default:
			return a.AssessmentFormCreatedAt.Before(b.AssessmentFormCreatedAt), a.AssessmentFormCreatedAt.Equal(b.AssessmentFormCreatedAt)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		lt, eq := less(&rows[i], &rows[j])
		if eq {
			return rows[i].AssessmentFormID.String() < rows[j].AssessmentFormID.String()
		}
		if asc {
			return lt
		}
		return !lt
	})
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset > len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func containsEventStatus(in []amodel.EventStatus, st amodel.EventStatus) bool {
	for _, x := range in {
		if x == st {
			return true
		}
	}
	return false
}

func eventKeyString(k amodel.EventKey) string {
	var b strings.Builder
	if k.SubjectID != nil {
		b.WriteString("s:" + k.SubjectID.String())
	}
	if k.CourseID != nil {
		b.WriteString("c:" + k.CourseID.String())
	}
	b.WriteString("|" + k.TemplateID.String() + "|" + k.OccurrenceDate.Format(time.DateOnly))
	return b.String()
}
