package sl_test

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	err := errors.New("something went wrong")
	attr := sl.Err(err)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestErr_WrappedError(t *testing.T) {
	err := fmt.Errorf("storage.GetUser: %w", errors.New("user not found"))
	assert.Equal(t, "storage.GetUser: user not found", sl.Err(err).Value.String())
}

func TestErr_NilError(t *testing.T) {
	assert.NotPanics(t, func() {
		attr := sl.Err(nil)
		assert.Equal(t, "", attr.Value.String())
	})
}

func TestOp(t *testing.T) {
	attr := sl.Op("handlers.payment.ipn")
	assert.Equal(t, "op", attr.Key)
	assert.Equal(t, "handlers.payment.ipn", attr.Value.String())
}
