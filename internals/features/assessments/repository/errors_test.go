package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))
	assert.ErrorIs(t, classify(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, classify(fmt.Errorf("wrap: %w", gorm.ErrRecordNotFound)), ErrNotFound)

	for _, code := range []string{"40001", "40P01", "55P03"} {
		err := classify(&pgconn.PgError{Code: code})
		assert.ErrorIs(t, err, ErrConflict, code)
	}

	other := &pgconn.PgError{Code: "23505"}
	err := classify(other)
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Same(t, other, err)
}
