// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/pollbox/auth"
	"github.com/danielhkuo/pollbox/middleware"
	"github.com/danielhkuo/pollbox/models"
	"github.com/danielhkuo/pollbox/testutil"
)

// anonymous is a caller with no token.
func anonymous(addr string) middleware.Caller {
	return middleware.Caller{Address: addr}
}

// callerFor is an authenticated caller for u.
func callerFor(u models.User) middleware.Caller {
	return middleware.Caller{
		Principal: &auth.Principal{UserID: u.ID, Username: u.Username},
		Address:   "10.0.0.1",
	}
}

// assertCode checks the machine-readable code of an error response.
func assertCode(t *testing.T, w *httptest.ResponseRecorder, code string) {
	t.Helper()
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Code != code {
		t.Errorf("Expected code %q, got %q (message %q)", code, resp.Code, resp.Message)
	}
}
