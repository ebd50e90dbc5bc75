package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestSuccess(t *testing.T) {
	w := record(func(c *gin.Context) {
		Success(c, gin.H{"value": 1})
	})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, expected 200", w.Code)
	}
	resp := decode(t, w)
	if !resp.Success {
		t.Error("success should be true")
	}
	if resp.Error != "" {
		t.Errorf("error = %q, expected empty", resp.Error)
	}
}

func TestCreated(t *testing.T) {
	w := record(func(c *gin.Context) {
		Created(c, gin.H{"id": 5})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, expected 201", w.Code)
	}
	if resp := decode(t, w); !resp.Success {
		t.Error("success should be true")
	}
}

func TestError_AppError(t *testing.T) {
	cases := []struct {
		err        *AppError
		wantStatus int
	}{
		{NewValidation("bad input"), http.StatusBadRequest},
		{NewConflict("state violation"), http.StatusBadRequest},
		{NewUnauthorized("no token"), http.StatusUnauthorized},
		{NewForbidden("not yours"), http.StatusForbidden},
		{NewNotFound("missing"), http.StatusNotFound},
		{NewServerError("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := record(func(c *gin.Context) {
			Error(c, tc.err)
		})
		if w.Code != tc.wantStatus {
			t.Errorf("%q: status = %d, expected %d", tc.err.Message, w.Code, tc.wantStatus)
		}
		resp := decode(t, w)
		if resp.Success {
			t.Errorf("%q: success should be false", tc.err.Message)
		}
		if resp.Error != tc.err.Message {
			t.Errorf("error = %q, expected %q", resp.Error, tc.err.Message)
		}
	}
}

func TestError_PlainError(t *testing.T) {
	w := record(func(c *gin.Context) {
		Error(c, errors.New("unexpected failure"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, expected 500", w.Code)
	}
	if resp := decode(t, w); resp.Error != "unexpected failure" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestError_WrappedAppError(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), NewNotFound("missing"))
	w := record(func(c *gin.Context) {
		Error(c, wrapped)
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404 from wrapped AppError", w.Code)
	}
}
