package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	amodel "trainingku_backend/internals/features/assessments/model"
)

func TestEventMemberWhere(t *testing.T) {
	subject := uuid.New()
	where, args := eventMemberWhere(EventFilter{
		Visibility: Visibility{
			Restricted:      true,
			SubjectIDs:      []uuid.UUID{subject},
			ExcludeStatuses: amodel.DepartmentHiddenStatuses,
		},
		Search: " induction ",
	})

	assert.Contains(t, where, "ANY(?::uuid[])")
	assert.NotContains(t, where, "assessment_form_status", "status form tidak memotong anggota event")
	assert.Contains(t, where, "ILIKE ?")
	assert.Equal(t, strings.Count(where, "?"), len(args))
	assert.Equal(t, "%induction%", args[len(args)-1])
}

func TestEventMemberWhereUnrestricted(t *testing.T) {
	where, args := eventMemberWhere(EventFilter{})
	assert.Equal(t, "1 = 1", where)
	assert.Empty(t, args)
}

func TestEventOuterWhereHidesAtEventLevel(t *testing.T) {
	outer, args := eventOuterWhere(EventFilter{
		Statuses:     []amodel.EventStatus{amodel.EventFinished},
		HideStatuses: amodel.DepartmentHiddenEventStatuses,
	})

	where := strings.Join(outer, " AND ")
	assert.Contains(t, where, "d.event_status = ANY(?)")
	assert.Contains(t, where, "NOT (d.event_status = ANY(?))")
	assert.Len(t, args, 2)
}

func TestEventLockKeySeparatesEvents(t *testing.T) {
	subject, tpl := uuid.New(), uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	key := amodel.EventKey{SubjectID: &subject, TemplateID: tpl, OccurrenceDate: day}

	assert.Equal(t, eventLockKey(key), eventLockKey(amodel.EventKey{SubjectID: &subject, TemplateID: tpl, OccurrenceDate: day}))
	assert.NotEqual(t, eventLockKey(key), eventLockKey(amodel.EventKey{SubjectID: &subject, TemplateID: tpl, OccurrenceDate: day.AddDate(0, 0, 1)}))
	assert.NotEqual(t, eventLockKey(key), eventLockKey(amodel.EventKey{CourseID: &subject, TemplateID: tpl, OccurrenceDate: day}))
}
