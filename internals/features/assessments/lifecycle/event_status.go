package lifecycle

import amodel "trainingku_backend/internals/features/assessments/model"

// EventCounts: hitungan status anggota satu event.
type EventCounts struct {
	Total      int
	NotStarted int
	Approved   int
	Cancelled  int
}

// DeriveEventStatus: NOT_STARTED bila semua NOT_STARTED, FINISHED bila semua APPROVED/CANCELLED, selain itu ON_GOING.
func DeriveEventStatus(c EventCounts) amodel.EventStatus {
	switch {
	case c.Total == 0:
		return amodel.EventNotStarted
	case c.NotStarted == c.Total:
		return amodel.EventNotStarted
	case c.Approved+c.Cancelled == c.Total:
		return amodel.EventFinished
	default:
		return amodel.EventOnGoing
	}
}

func CountStatuses(statuses []amodel.FormStatus) EventCounts {
	c := EventCounts{Total: len(statuses)}
	for _, st := range statuses {
		switch st {
		case amodel.FormNotStarted:
			c.NotStarted++
		case amodel.FormApproved:
			c.Approved++
		case amodel.FormCancelled:
			c.Cancelled++
		}
	}
	return c
}
