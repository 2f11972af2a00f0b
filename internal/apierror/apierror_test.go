package apierror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToEnvelopeMapsKindToStatus(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
	}{
		{InputValidation, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{BackendConnection, http.StatusServiceUnavailable},
		{DocumentRetrieval, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, env := ToEnvelope(New(tc.kind, "slug", "detail"))
		assert.Equal(t, tc.status, status)
		assert.Equal(t, "slug", env.Short)
	}
}

func TestToEnvelopeFallsBackForPlainErrors(t *testing.T) {
	status, env := ToEnvelope(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal", env.Short)
}

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(BackendConnection, "backend_unreachable", cause)
	assert.ErrorIs(t, err, cause)
}
