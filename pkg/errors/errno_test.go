package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeCode(t *testing.T) {
	assert.Equal(t, 0, MakeCode(0, 0, 0))
	assert.Equal(t, 2007001, MakeCode(ServiceRAG, CategoryInternal, 1))
	assert.Equal(t, 1010000, MakeCode(ServiceInfra, CategoryUpstream, 0))
}

func TestErrnoWithCause(t *testing.T) {
	cause := errors.New("connection refused")
	e := ErrDatabase.WithCause(cause)

	assert.ErrorIs(t, e, ErrDatabase)
	assert.Equal(t, cause, errors.Unwrap(e))
	assert.Contains(t, e.Error(), "connection refused")

	// Original stays untouched.
	assert.Nil(t, errors.Unwrap(error(ErrDatabase)))
}

func TestErrnoWithMessage(t *testing.T) {
	e := ErrInvalidParam.WithMessage("Case ID is invalid")

	assert.Equal(t, "Case ID is invalid", e.Message)
	assert.Equal(t, ErrInvalidParam.Code, e.Code)
	assert.Equal(t, http.StatusBadRequest, e.HTTPStatus())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	e := FromError(ErrRetrieval)
	assert.Same(t, ErrRetrieval, e)

	wrapped := FromError(fmt.Errorf("boom"))
	assert.ErrorIs(t, wrapped, ErrInternal)
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	assert.Panics(t, func() {
		Register(&Errno{Code: ErrInternal.Code, HTTP: 500, Message: "dup"})
	})
}

func TestLookup(t *testing.T) {
	e, ok := Lookup(ErrVideoUpload.Code)
	require.True(t, ok)
	assert.Equal(t, "Error uploading video", e.Message)

	_, ok = Lookup(9999999)
	assert.False(t, ok)
}
