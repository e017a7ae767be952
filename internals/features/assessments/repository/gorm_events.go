// file: internals/features/assessments/repository/gorm_events.go
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trainingku_backend/internals/features/assessments/lifecycle"
	amodel "trainingku_backend/internals/features/assessments/model"
)

/*
   Event = proyeksi read-side. Tidak ada tabel events; grup dihitung ulang
   dari assessment_forms setiap query sehingga tidak pernah drift.
*/

const eventsSQL = `
WITH member AS (
	SELECT f.*
	FROM assessment_forms f
	WHERE %s
),
grouped AS (
	SELECT
		m.assessment_form_subject_id      AS subject_id,
		m.assessment_form_course_id       AS course_id,
		m.assessment_form_template_id     AS template_id,
		m.assessment_form_occurrence_date AS occurrence_date,
		MIN(m.assessment_form_event_name) AS event_name,
		COUNT(DISTINCT m.assessment_form_id)                                                          AS total_trainees,
		COUNT(DISTINCT m.assessment_form_id) FILTER (WHERE m.assessment_form_status = 'NOT_STARTED') AS not_started,
		COUNT(DISTINCT m.assessment_form_id) FILTER (WHERE m.assessment_form_status = 'APPROVED')    AS approved,
		COUNT(DISTINCT m.assessment_form_id) FILTER (WHERE m.assessment_form_status = 'REJECTED')    AS rejected,
		COUNT(DISTINCT m.assessment_form_id) FILTER (WHERE m.assessment_form_status = 'CANCELLED')   AS cancelled,
		COUNT(DISTINCT m.assessment_form_id) FILTER (WHERE m.assessment_form_result_text = 'PASS')   AS passed,
		COUNT(DISTINCT m.assessment_form_id) FILTER (WHERE m.assessment_form_result_text = 'FAIL')   AS failed,
		COUNT(DISTINCT s.assessment_section_assessed_by_id)
			FILTER (WHERE s.assessment_section_assessed_by_id <> m.assessment_form_trainee_id)     AS total_trainers
	FROM member m
	LEFT JOIN assessment_sections s ON s.assessment_section_form_id = m.assessment_form_id
	GROUP BY 1, 2, 3, 4
),
derived AS (
	SELECT g.*,
		CASE
			WHEN g.not_started = g.total_trainees THEN 'NOT_STARTED'
			WHEN g.approved + g.cancelled = g.total_trainees THEN 'FINISHED'
			ELSE 'ON_GOING'
		END AS event_status
	FROM grouped g
)
SELECT d.*, COUNT(*) OVER() AS full_count
FROM derived d
WHERE %s
ORDER BY d.occurrence_date DESC, d.template_id ASC
%s`

type eventScanRow struct {
	SubjectID      *uuid.UUID `gorm:"column:subject_id"`
	CourseID       *uuid.UUID `gorm:"column:course_id"`
	TemplateID     uuid.UUID  `gorm:"column:template_id"`
	OccurrenceDate time.Time  `gorm:"column:occurrence_date"`
	EventName      string     `gorm:"column:event_name"`
	TotalTrainees  int        `gorm:"column:total_trainees"`
	NotStarted     int        `gorm:"column:not_started"`
	Approved       int        `gorm:"column:approved"`
	Rejected       int        `gorm:"column:rejected"`
	Cancelled      int        `gorm:"column:cancelled"`
	Passed         int        `gorm:"column:passed"`
	Failed         int        `gorm:"column:failed"`
	TotalTrainers  int        `gorm:"column:total_trainers"`
	FullCount      int64      `gorm:"column:full_count"`
}

func (s *GormStore) ListEvents(ctx context.Context, f EventFilter) ([]EventRow, int64, error) {
	memberWhere, memberArgs := eventMemberWhere(f)

	outer, outerArgs := eventOuterWhere(f)

	page := ""
	if f.Limit > 0 {
		page = fmt.Sprintf("LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	sql := fmt.Sprintf(eventsSQL, memberWhere, strings.Join(outer, " AND "), page)
	args := append(memberArgs, outerArgs...)

	var scanned []eventScanRow
	if err := s.DB.WithContext(ctx).Raw(sql, args...).Scan(&scanned).Error; err != nil {
		return nil, 0, classify(err)
	}

	var total int64
	rows := make([]EventRow, 0, len(scanned))
	for _, r := range scanned {
		total = r.FullCount
		rows = append(rows, EventRow{
			Key: amodel.EventKey{
				SubjectID:      r.SubjectID,
				CourseID:       r.CourseID,
				TemplateID:     r.TemplateID,
				OccurrenceDate: r.OccurrenceDate,
			},
			EventName:     r.EventName,
			TotalTrainees: r.TotalTrainees,
			NotStarted:    r.NotStarted,
			Approved:      r.Approved,
			Rejected:      r.Rejected,
			Cancelled:     r.Cancelled,
			Passed:        r.Passed,
			Failed:        r.Failed,
			TotalTrainers: r.TotalTrainers,
			Status: lifecycle.DeriveEventStatus(lifecycle.EventCounts{
				Total:      r.TotalTrainees,
				NotStarted: r.NotStarted,
				Approved:   r.Approved,
				Cancelled:  r.Cancelled,
			}),
		})
	}
	return rows, total, nil
}

// eventOuterWhere: filter pada level event, setelah status diturunkan dari semua anggota.
func eventOuterWhere(f EventFilter) ([]string, []any) {
	outer := []string{"1 = 1"}
	var args []any
	if len(f.Statuses) > 0 {
		outer = append(outer, "d.event_status = ANY(?)")
		args = append(args, pq.Array(eventStatusStrings(f.Statuses)))
	}
	if len(f.HideStatuses) > 0 {
		outer = append(outer, "NOT (d.event_status = ANY(?))")
		args = append(args, pq.Array(eventStatusStrings(f.HideStatuses)))
	}
	return outer, args
}

func eventStatusStrings(in []amodel.EventStatus) []string {
	out := make([]string, len(in))
	for i, st := range in {
		out[i] = string(st)
	}
	return out
}

// eventMemberWhere: anggota event dalam scope aktor. Status form tidak difilter di sini.
func eventMemberWhere(f EventFilter) (string, []any) {
	conds := []string{"1 = 1"}
	var args []any

	v := f.Visibility
	if v.TraineeID != nil {
		conds = append(conds, "f.assessment_form_trainee_id = ?")
		args = append(args, *v.TraineeID)
	}
	if v.Restricted {
		conds = append(conds, "(f.assessment_form_subject_id = ANY(?::uuid[]) OR f.assessment_form_course_id = ANY(?::uuid[]))")
		args = append(args, pq.Array(uuidStrings(v.SubjectIDs)), pq.Array(uuidStrings(v.CourseIDs)))
	}
	if f.SubjectID != nil {
		conds = append(conds, "f.assessment_form_subject_id = ?")
		args = append(args, *f.SubjectID)
	}
	if f.CourseID != nil {
		conds = append(conds, "f.assessment_form_course_id = ?")
		args = append(args, *f.CourseID)
	}
	if f.TemplateID != nil {
		conds = append(conds, "f.assessment_form_template_id = ?")
		args = append(args, *f.TemplateID)
	}
	if f.OccurrenceFrom != nil {
		conds = append(conds, "f.assessment_form_occurrence_date >= ?")
		args = append(args, *f.OccurrenceFrom)
	}
	if f.OccurrenceTo != nil {
		conds = append(conds, "f.assessment_form_occurrence_date <= ?")
		args = append(args, *f.OccurrenceTo)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		conds = append(conds, "f.assessment_form_event_name ILIKE ?")
		args = append(args, "%"+term+"%")
	}
	return strings.Join(conds, " AND "), args
}

func uuidStrings(in []uuid.UUID) []string {
	out := make([]string, len(in))
	for i, id := range in {
		out[i] = id.String()
	}
	return out
}
