// file: internals/features/assessments/repository/gorm_store.go
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	amodel "trainingku_backend/internals/features/assessments/model"
	dmodel "trainingku_backend/internals/features/directory/model"
)

const createBatchSize = 200

type GormStore struct {
	DB        *gorm.DB
	TxTimeout time.Duration
}

func NewGormStore(db *gorm.DB, txTimeout time.Duration) *GormStore {
	return &GormStore{DB: db, TxTimeout: txTimeout}
}

func (s *GormStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if s.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.TxTimeout)
		defer cancel()
	}
	err := s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db})
	})
	return classify(err)
}

/* =========================
   Reads
========================= */

func (s *GormStore) FindForm(ctx context.Context, id uuid.UUID) (*amodel.AssessmentFormModel, error) {
	var f amodel.AssessmentFormModel
	if err := s.DB.WithContext(ctx).
		Where("assessment_form_id = ?", id).
		Take(&f).Error; err != nil {
		return nil, classify(err)
	}
	return &f, nil
}

func (s *GormStore) ListForms(ctx context.Context, f FormFilter) ([]amodel.AssessmentFormModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&amodel.AssessmentFormModel{})
	q = applyVisibility(q, f.Visibility)

	if len(f.Statuses) > 0 {
		q = q.Where("assessment_form_status IN ?", statusStrings(f.Statuses))
	}
	if f.TemplateID != nil {
		q = q.Where("assessment_form_template_id = ?", *f.TemplateID)
	}
	if f.SubjectID != nil {
		q = q.Where("assessment_form_subject_id = ?", *f.SubjectID)
	}
	if f.CourseID != nil {
		q = q.Where("assessment_form_course_id = ?", *f.CourseID)
	}
	if f.TraineeID != nil {
		q = q.Where("assessment_form_trainee_id = ?", *f.TraineeID)
	}
	if f.OccurrenceFrom != nil {
		q = q.Where("assessment_form_occurrence_date >= ?", *f.OccurrenceFrom)
	}
	if f.OccurrenceTo != nil {
		q = q.Where("assessment_form_occurrence_date <= ?", *f.OccurrenceTo)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		q = q.Where("assessment_form_name ILIKE ?", "%"+term+"%")
	}
	if f.Event != nil {
		q = whereEventKey(q, *f.Event)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	col, ok := SortColumns[f.SortBy]
	if !ok {
		col = SortColumns["created_at"]
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}
	q = q.Order(col + " " + dir).Order("assessment_form_id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var rows []amodel.AssessmentFormModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, classify(err)
	}
	return rows, total, nil
}

func (s *GormStore) ListSections(ctx context.Context, formID uuid.UUID) ([]amodel.AssessmentSectionModel, error) {
	return listSections(s.DB.WithContext(ctx), formID)
}

func (s *GormStore) ListValuesBySections(ctx context.Context, sectionIDs []uuid.UUID) ([]amodel.AssessmentValueModel, error) {
	return listValues(s.DB.WithContext(ctx), sectionIDs)
}

func (s *GormStore) FindExisting(ctx context.Context, templateID uuid.UUID, occurrence time.Time, scope dmodel.EntityScope, traineeIDs []uuid.UUID) ([]amodel.AssessmentFormModel, error) {
	return findExisting(s.DB.WithContext(ctx), templateID, occurrence, scope, traineeIDs)
}

func findExisting(db *gorm.DB, templateID uuid.UUID, occurrence time.Time, scope dmodel.EntityScope, traineeIDs []uuid.UUID) ([]amodel.AssessmentFormModel, error) {
	if len(traineeIDs) == 0 {
		return nil, nil
	}
	q := db.
		Where("assessment_form_template_id = ?", templateID).
		Where("assessment_form_occurrence_date = ?", occurrence).
		Where("assessment_form_trainee_id IN ?", traineeIDs).
		Where("assessment_form_status <> ?", amodel.FormCancelled)
	if scope.SubjectID != nil {
		q = q.Where("assessment_form_subject_id = ?", *scope.SubjectID)
	} else {
		q = q.Where("assessment_form_course_id = ?", *scope.CourseID)
	}
	var rows []amodel.AssessmentFormModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

/* =========================
   Idempotent single-statement writes
========================= */

func (s *GormStore) StartDue(ctx context.Context, today time.Time, updatedAt time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Model(&amodel.AssessmentFormModel{}).
		Where("assessment_form_status = ?", amodel.FormNotStarted).
		Where("assessment_form_occurrence_date <= ?", today).
		Updates(map[string]any{
			"assessment_form_status":     amodel.FormOnGoing,
			"assessment_form_updated_at": updatedAt,
		})
	return res.RowsAffected, classify(res.Error)
}

func (s *GormStore) StartEvent(ctx context.Context, key amodel.EventKey, updatedAt time.Time) (int64, error) {
	q := s.DB.WithContext(ctx).
		Model(&amodel.AssessmentFormModel{}).
		Where("assessment_form_status = ?", amodel.FormNotStarted)
	res := whereEventKey(q, key).Updates(map[string]any{
		"assessment_form_status":     amodel.FormOnGoing,
		"assessment_form_updated_at": updatedAt,
	})
	return res.RowsAffected, classify(res.Error)
}

func (s *GormStore) ArchiveEvent(ctx context.Context, key amodel.EventKey, actorID uuid.UUID, updatedAt time.Time) (int64, error) {
	q := s.DB.WithContext(ctx).
		Model(&amodel.AssessmentFormModel{}).
		Where("assessment_form_status = ?", amodel.FormNotStarted)
	res := whereEventKey(q, key).Updates(map[string]any{
		"assessment_form_status":        amodel.FormCancelled,
		"assessment_form_updated_by_id": actorID,
		"assessment_form_updated_at":    updatedAt,
	})
	return res.RowsAffected, classify(res.Error)
}

func (s *GormStore) AttachPDF(ctx context.Context, formID uuid.UUID, url string, updatedAt time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Model(&amodel.AssessmentFormModel{}).
		Where("assessment_form_id = ? AND assessment_form_status = ?", formID, amodel.FormApproved).
		Updates(map[string]any{
			"assessment_form_pdf_url":    url,
			"assessment_form_updated_at": updatedAt,
		})
	return res.RowsAffected, classify(res.Error)
}

/* =========================
   Tx
========================= */

type gormTx struct{ db *gorm.DB }

func (t *gormTx) LockForm(id uuid.UUID) (*amodel.AssessmentFormModel, error) {
	var f amodel.AssessmentFormModel
	if err := t.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("assessment_form_id = ?", id).
		Take(&f).Error; err != nil {
		return nil, classify(err)
	}
	return &f, nil
}

// LockEvent: advisory lock sampai commit, per (subject|course, template, tanggal).
func (t *gormTx) LockEvent(key amodel.EventKey) error {
	return classify(t.db.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", eventLockKey(key)).Error)
}

func (t *gormTx) FindExisting(templateID uuid.UUID, occurrence time.Time, scope dmodel.EntityScope, traineeIDs []uuid.UUID) ([]amodel.AssessmentFormModel, error) {
	return findExisting(t.db, templateID, occurrence, scope, traineeIDs)
}

func eventLockKey(key amodel.EventKey) string {
	entity := "-"
	if key.SubjectID != nil {
		entity = "s:" + key.SubjectID.String()
	} else if key.CourseID != nil {
		entity = "c:" + key.CourseID.String()
	}
	return strings.Join([]string{"assessment_event", entity, key.TemplateID.String(), key.OccurrenceDate.Format("2006-01-02")}, "|")
}

func (t *gormTx) ListSections(formID uuid.UUID) ([]amodel.AssessmentSectionModel, error) {
	return listSections(t.db, formID)
}

func (t *gormTx) GetSection(formID, sectionID uuid.UUID) (*amodel.AssessmentSectionModel, error) {
	var sec amodel.AssessmentSectionModel
	if err := t.db.
		Where("assessment_section_id = ? AND assessment_section_form_id = ?", sectionID, formID).
		Take(&sec).Error; err != nil {
		return nil, classify(err)
	}
	return &sec, nil
}

func (t *gormTx) ListValues(sectionIDs []uuid.UUID) ([]amodel.AssessmentValueModel, error) {
	return listValues(t.db, sectionIDs)
}

func (t *gormTx) CreateForms(forms []amodel.AssessmentFormModel) error {
	if len(forms) == 0 {
		return nil
	}
	var (
		sections []amodel.AssessmentSectionModel
		values   []amodel.AssessmentValueModel
	)
	flat := make([]amodel.AssessmentFormModel, len(forms))
	for i := range forms {
		flat[i] = forms[i]
		flat[i].Sections = nil
		for _, sec := range forms[i].Sections {
			values = append(values, sec.Values...)
			sec.Values = nil
			sections = append(sections, sec)
		}
	}

	if err := t.db.Omit(clause.Associations).CreateInBatches(&flat, createBatchSize).Error; err != nil {
		return classify(err)
	}
	if len(sections) > 0 {
		if err := t.db.Omit(clause.Associations).CreateInBatches(&sections, createBatchSize).Error; err != nil {
			return classify(err)
		}
	}
	if len(values) > 0 {
		if err := t.db.CreateInBatches(&values, createBatchSize).Error; err != nil {
			return classify(err)
		}
	}
	return nil
}

func (t *gormTx) ClaimSection(sectionID, actorID uuid.UUID, at time.Time) (int64, error) {
	res := t.db.
		Model(&amodel.AssessmentSectionModel{}).
		Where("assessment_section_id = ? AND assessment_section_assessed_by_id IS NULL", sectionID).
		Updates(map[string]any{
			"assessment_section_assessed_by_id": actorID,
			"assessment_section_status":         amodel.SectionDraft,
			"assessment_section_updated_at":     at,
		})
	return res.RowsAffected, classify(res.Error)
}

func (t *gormTx) ForceSectionDraft(sectionID, assessedBy uuid.UUID, at time.Time) error {
	return classify(t.db.
		Model(&amodel.AssessmentSectionModel{}).
		Where("assessment_section_id = ?", sectionID).
		Updates(map[string]any{
			"assessment_section_assessed_by_id": assessedBy,
			"assessment_section_status":         amodel.SectionDraft,
			"assessment_section_updated_at":     at,
		}).Error)
}

func (t *gormTx) UpdateValues(sectionID uuid.UUID, updates []ValueUpdate, actorID uuid.UUID, at time.Time) (int64, error) {
	var affected int64
	for _, u := range updates {
		var answer any = gorm.Expr("NULL")
		if u.Answer != nil {
			answer = *u.Answer
		}
		res := t.db.
			Model(&amodel.AssessmentValueModel{}).
			Where("assessment_value_id = ? AND assessment_value_section_id = ?", u.ValueID, sectionID).
			Updates(map[string]any{
				"assessment_value_answer_value":  answer,
				"assessment_value_updated_by_id": actorID,
				"assessment_value_updated_at":    at,
			})
		if res.Error != nil {
			return affected, classify(res.Error)
		}
		affected += res.RowsAffected
	}
	return affected, nil
}

func (t *gormTx) TransitionForm(formID uuid.UUID, from []amodel.FormStatus, patch FormPatch) (int64, error) {
	q := t.db.Model(&amodel.AssessmentFormModel{}).Where("assessment_form_id = ?", formID)
	if len(from) > 0 {
		q = q.Where("assessment_form_status IN ?", statusStrings(from))
	}
	res := q.Updates(patchColumns(patch))
	return res.RowsAffected, classify(res.Error)
}

/* =========================
   Shared helpers
========================= */

func listSections(db *gorm.DB, formID uuid.UUID) ([]amodel.AssessmentSectionModel, error) {
	var rows []amodel.AssessmentSectionModel
	if err := db.
		Where("assessment_section_form_id = ?", formID).
		Order("assessment_section_created_at ASC, assessment_section_id ASC").
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func listValues(db *gorm.DB, sectionIDs []uuid.UUID) ([]amodel.AssessmentValueModel, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	var rows []amodel.AssessmentValueModel
	if err := db.
		Where("assessment_value_section_id IN ?", sectionIDs).
		Order("assessment_value_section_id ASC, assessment_value_id ASC").
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func patchColumns(p FormPatch) map[string]any {
	cols := map[string]any{"assessment_form_updated_at": p.UpdatedAt}
	if p.UpdatedByID != uuid.Nil {
		cols["assessment_form_updated_by_id"] = p.UpdatedByID
	}
	if p.Status != nil {
		cols["assessment_form_status"] = *p.Status
	}
	if p.IsTraineeLocked != nil {
		cols["assessment_form_is_trainee_locked"] = *p.IsTraineeLocked
	}
	if p.SubmittedAt != nil {
		cols["assessment_form_submitted_at"] = *p.SubmittedAt
	}
	if p.SubmittedByID != nil {
		cols["assessment_form_submitted_by_id"] = *p.SubmittedByID
	}
	if p.Comment != nil {
		cols["assessment_form_comment"] = *p.Comment
	}
	if p.ClearResult {
		cols["assessment_form_result_score"] = gorm.Expr("NULL")
		cols["assessment_form_result_text"] = gorm.Expr("NULL")
		cols["assessment_form_approved_by_id"] = gorm.Expr("NULL")
		cols["assessment_form_approved_at"] = gorm.Expr("NULL")
	}
	if p.ApprovedByID != nil {
		cols["assessment_form_approved_by_id"] = *p.ApprovedByID
	}
	if p.ApprovedAt != nil {
		cols["assessment_form_approved_at"] = *p.ApprovedAt
	}
	if p.ResultScore != nil {
		cols["assessment_form_result_score"] = *p.ResultScore
	}
	if p.ResultText != nil {
		cols["assessment_form_result_text"] = *p.ResultText
	}
	if p.ScoreDetails != nil {
		cols["assessment_form_score_details"] = p.ScoreDetails
	}
	return cols
}

func applyVisibility(q *gorm.DB, v Visibility) *gorm.DB {
	if v.TraineeID != nil {
		q = q.Where("assessment_form_trainee_id = ?", *v.TraineeID)
	}
	if v.Restricted {
		switch {
		case len(v.SubjectIDs) > 0 && len(v.CourseIDs) > 0:
			q = q.Where("(assessment_form_subject_id IN ? OR assessment_form_course_id IN ?)", v.SubjectIDs, v.CourseIDs)
		case len(v.SubjectIDs) > 0:
			q = q.Where("assessment_form_subject_id IN ?", v.SubjectIDs)
		case len(v.CourseIDs) > 0:
			q = q.Where("assessment_form_course_id IN ?", v.CourseIDs)
		default:
			q = q.Where("1 = 0")
		}
	}
	if len(v.ExcludeStatuses) > 0 {
		q = q.Where("assessment_form_status NOT IN ?", statusStrings(v.ExcludeStatuses))
	}
	return q
}

func whereEventKey(q *gorm.DB, key amodel.EventKey) *gorm.DB {
	q = q.Where("assessment_form_template_id = ? AND assessment_form_occurrence_date = ?", key.TemplateID, key.OccurrenceDate)
	if key.SubjectID != nil {
		q = q.Where("assessment_form_subject_id = ?", *key.SubjectID)
	} else {
		q = q.Where("assessment_form_subject_id IS NULL")
	}
	if key.CourseID != nil {
		q = q.Where("assessment_form_course_id = ?", *key.CourseID)
	} else {
		q = q.Where("assessment_form_course_id IS NULL")
	}
	return q
}

func statusStrings(in []amodel.FormStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
