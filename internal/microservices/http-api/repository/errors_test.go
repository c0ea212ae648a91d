package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "missing row", err: gorm.ErrRecordNotFound, want: ErrNotFound},
		{name: "duplicate key", err: gorm.ErrDuplicatedKey, want: ErrConflict},
		{name: "translated foreign key", err: gorm.ErrForeignKeyViolated, want: ErrNotFound},
		{name: "pg unique", err: &pgconn.PgError{Code: "23505"}, want: ErrConflict},
		{name: "pg foreign key", err: &pgconn.PgError{Code: "23503"}, want: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError("op", tt.err), tt.want)
		})
	}

	other := errors.New("connection reset")
	err := translateError("op", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, translateError("op", nil))
}
