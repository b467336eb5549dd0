package apperr_test

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"dealdesk/internal/apperr"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"validation", apperr.Validation("name is required"), apperr.KindValidation},
		{"not found", apperr.NotFound("deal %d not found", 7), apperr.KindNotFound},
		{"conflict", apperr.Conflict("duplicate"), apperr.KindConflict},
		{"wrapped conflict", fmt.Errorf("save: %w", apperr.Conflict("stale")), apperr.KindConflict},
		{"plain error", sql.ErrConnDone, apperr.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestInternalKeepsCauseOutOfMessage(t *testing.T) {
	t.Parallel()

	err := apperr.Internal(sql.ErrTxDone, "save deal")
	assert.ErrorIs(t, err, sql.ErrTxDone)
	assert.Equal(t, "save deal", apperr.MessageOf(err))
	assert.Contains(t, err.Error(), sql.ErrTxDone.Error())
	assert.Equal(t, "internal error", apperr.MessageOf(sql.ErrTxDone))
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, apperr.IsValidation(apperr.Validation("x")))
	assert.True(t, apperr.IsNotFound(apperr.NotFound("x")))
	assert.True(t, apperr.IsConflict(apperr.Conflict("x")))
	assert.False(t, apperr.IsConflict(nil))
	assert.False(t, apperr.IsNotFound(apperr.Conflict("x")))
}
