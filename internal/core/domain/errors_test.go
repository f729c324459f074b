package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchError_WrapsAndDescribes(t *testing.T) {
	cause := errors.New("401 unauthorized")
	err := &FetchError{Kind: FetchAuthFailed, Source: "sharepoint", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "sharepoint")
	assert.Contains(t, err.Error(), "authentication failed")

	var fe *FetchError
	require.ErrorAs(t, error(err), &fe)
	assert.Equal(t, FetchAuthFailed, fe.Kind)
}

func TestFetchErrorKind_String(t *testing.T) {
	assert.Equal(t, "authentication failed", FetchAuthFailed.String())
	assert.Equal(t, "not found", FetchNotFound.String())
	assert.Equal(t, "permission denied", FetchPermissionDenied.String())
	assert.Equal(t, "unreachable", FetchUnreachable.String())
}

func TestExtractionError(t *testing.T) {
	cause := ErrUnsupportedFormat
	err := &ExtractionError{Item: "report.bin", Format: "bin", Err: cause}

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "report.bin")
}

func TestInsertionError(t *testing.T) {
	cause := errors.New("write conflict")
	err := &InsertionError{Batch: 2, Size: 25, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "batch 2")

	var ie *InsertionError
	require.ErrorAs(t, error(err), &ie)
	assert.Equal(t, 25, ie.Size)
}
