package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingku_backend/internals/features/assessments/repository"
	"trainingku_backend/internals/features/assessments/repository/inmem"
	tmodel "trainingku_backend/internals/features/templates/model"
)

func structureWith(status tmodel.TemplateStatus) tmodel.TemplateStructure {
	tplID := uuid.New()
	secID := uuid.New()
	return tmodel.TemplateStructure{
		Template: tmodel.TemplateFormModel{
			TemplateFormID:        tplID,
			TemplateFormName:      "Checkride",
			TemplateFormStatus:    status,
			TemplateFormVersion:   2,
			TemplateFormCreatedAt: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
		},
		Sections: []tmodel.SectionStructure{{
			Section: tmodel.TemplateSectionModel{
				TemplateSectionID:         secID,
				TemplateSectionTemplateID: tplID,
				TemplateSectionName:       "Instructor",
			},
			Fields: []tmodel.TemplateFieldModel{{
				TemplateFieldID:        uuid.New(),
				TemplateFieldSectionID: secID,
				TemplateFieldType:      tmodel.FieldTypeFinalScoreNum,
			}},
		}},
	}
}

func TestTemplateCacheWithoutRedisPassesThrough(t *testing.T) {
	src := inmem.NewTemplates()
	st := structureWith(tmodel.TemplateStatusPublished)
	src.Put(st)

	c := NewTemplateCache(nil, src, 0)
	assert.Equal(t, 30*time.Minute, c.TTL)

	for i := 0; i < 3; i++ {
		got, err := c.GetStructure(context.Background(), st.Template.TemplateFormID)
		require.NoError(t, err)
		assert.Equal(t, "Checkride", got.Template.TemplateFormName)
	}
	assert.Equal(t, 3, src.Calls)
	require.NoError(t, c.Invalidate(context.Background(), st.Template.TemplateFormID))
}

func TestTemplateCachePublishedOnly(t *testing.T) {
	src := inmem.NewTemplates()
	draft := structureWith(tmodel.TemplateStatusDraft)
	src.Put(draft)
	c := NewTemplateCache(nil, src, time.Minute)

	_, err := c.GetPublishedStructure(context.Background(), draft.Template.TemplateFormID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := c.GetStructure(context.Background(), draft.Template.TemplateFormID)
	require.NoError(t, err)
	assert.Equal(t, tmodel.TemplateStatusDraft, got.Template.TemplateFormStatus)

	_, err = c.GetStructure(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStructureEncoding(t *testing.T) {
	st := structureWith(tmodel.TemplateStatusPublished)
	raw, err := encodeStructure(&st)
	require.NoError(t, err)

	back, err := decodeStructure(raw)
	require.NoError(t, err)
	assert.Equal(t, st.Template.TemplateFormID, back.Template.TemplateFormID)
	assert.True(t, st.Template.TemplateFormCreatedAt.Equal(back.Template.TemplateFormCreatedAt))
	require.Len(t, back.Sections, 1)
	require.Len(t, back.Sections[0].Fields, 1)
	assert.Equal(t, tmodel.FieldTypeFinalScoreNum, back.Sections[0].Fields[0].TemplateFieldType)

	_, err = decodeStructure([]byte("{not json"))
	assert.Error(t, err)
	assert.Equal(t, "tmpl:structure:"+st.Template.TemplateFormID.String(), structureKey(st.Template.TemplateFormID))
}
