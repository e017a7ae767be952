package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEntityScopeValid(t *testing.T) {
	id := uuid.New()
	assert.True(t, SubjectScope(id).Valid())
	assert.True(t, CourseScope(id).Valid())
	assert.False(t, EntityScope{}.Valid())
	assert.False(t, EntityScope{SubjectID: &id, CourseID: &id}.Valid())

	assert.Equal(t, id, CourseScope(id).ID())
	assert.True(t, CourseScope(id).IsCourse())
	assert.Equal(t, uuid.Nil, EntityScope{}.ID())
}
