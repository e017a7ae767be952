package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"trainingku_backend/internals/features/assessments/repository"
	tmodel "trainingku_backend/internals/features/templates/model"
)

// Source adalah reader struktur template di belakang cache (biasanya GormTemplateReader).
type Source interface {
	GetStructure(ctx context.Context, templateID uuid.UUID) (*tmodel.TemplateStructure, error)
}

// TemplateCache menyimpan struktur template PUBLISHED di Redis.
// Client nil = cache mati, semua panggilan langsung ke Source.
type TemplateCache struct {
	Client *redis.Client
	Source Source
	TTL    time.Duration
}

func NewTemplateCache(client *redis.Client, source Source, ttl time.Duration) *TemplateCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TemplateCache{Client: client, Source: source, TTL: ttl}
}

func structureKey(templateID uuid.UUID) string {
	return fmt.Sprintf("tmpl:structure:%s", templateID)
}

func (c *TemplateCache) GetStructure(ctx context.Context, templateID uuid.UUID) (*tmodel.TemplateStructure, error) {
	if c.Client == nil {
		return c.Source.GetStructure(ctx, templateID)
	}

	key := structureKey(templateID)
	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		st, derr := decodeStructure(raw)
		if derr == nil {
			return st, nil
		}
		log.Printf("[TemplateCache] ⚠️ corrupt entry key=%s: %v", key, derr)
	case err != redis.Nil:
		log.Printf("[TemplateCache] ⚠️ redis get failed key=%s: %v", key, err)
	}

	st, err := c.Source.GetStructure(ctx, templateID)
	if err != nil {
		return nil, err
	}
	// draft/archived bisa berubah; hanya PUBLISHED yang immutable
	if st.Template.TemplateFormStatus == tmodel.TemplateStatusPublished {
		if payload, merr := encodeStructure(st); merr == nil {
			if serr := c.Client.Set(ctx, key, payload, c.TTL).Err(); serr != nil {
				log.Printf("[TemplateCache] ⚠️ redis set failed key=%s: %v", key, serr)
			}
		}
	}
	return st, nil
}

func (c *TemplateCache) GetPublishedStructure(ctx context.Context, templateID uuid.UUID) (*tmodel.TemplateStructure, error) {
	st, err := c.GetStructure(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if st.Template.TemplateFormStatus != tmodel.TemplateStatusPublished {
		return nil, repository.ErrNotFound
	}
	return st, nil
}

// Invalidate dipakai bila template di-unpublish / di-archive.
func (c *TemplateCache) Invalidate(ctx context.Context, templateID uuid.UUID) error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Del(ctx, structureKey(templateID)).Err()
}

func encodeStructure(st *tmodel.TemplateStructure) ([]byte, error) {
	return sonic.Marshal(st)
}

func decodeStructure(raw []byte) (*tmodel.TemplateStructure, error) {
	var st tmodel.TemplateStructure
	if err := sonic.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
