package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optimwalls/Optimwalls/internal/shared"
	_ "github.com/optimwalls/Optimwalls/internal/testing/guard"
)

func respond(t *testing.T, err error) (int, ProblemDetail) {
	t.Helper()
	res := httptest.NewRecorder()
	RespondError(res, err)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	return res.Code, body
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid credentials", shared.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unauthenticated", shared.ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden},
		{"not found", shared.ErrNotFound, http.StatusNotFound},
		{"conflict", shared.ErrConflict, http.StatusConflict},
		{"validation", shared.ErrValidation, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("%w: bad status", shared.ErrValidation), http.StatusBadRequest},
		{"unexpected", errors.New("database exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := respond(t, tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.status, body.Status)
		})
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	_, body := respond(t, errors.New("pq: connection refused at 10.0.0.5"))
	require.Empty(t, body.Detail, "internal errors must stay opaque")
}

func TestRespondErrorPermission(t *testing.T) {
	status, body := respond(t, &shared.PermissionError{Resource: "leads", Action: "update"})
	require.Equal(t, http.StatusForbidden, status)
	require.Contains(t, body.Detail, "leads:update")
}

func TestRespondErrorCredentialDetailIsGeneric(t *testing.T) {
	_, body := respond(t, shared.ErrInvalidCredentials)
	require.Equal(t, "invalid credentials", body.Detail)
}
