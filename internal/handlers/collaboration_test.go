package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/scholarpoint/scholarpoint/internal/middleware"
	"github.com/scholarpoint/scholarpoint/internal/models"
	"github.com/scholarpoint/scholarpoint/internal/services"
	"github.com/scholarpoint/scholarpoint/internal/utils"
	"github.com/scholarpoint/scholarpoint/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handler-test-secret")
}

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.CollaborationRequest{},
		&models.SystemConfig{},
		&models.ActivityLog{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	collabService := services.NewCollaborationService(db, nil)
	collabHandler := NewCollaborationHandler(collabService)
	projectHandler := NewProjectHandler(db, collabService)

	r := gin.New()
	protected := r.Group("/api")
	protected.Use(middleware.AuthRequired())
	{
		protected.GET("/projects/:id", projectHandler.GetByID)
		protected.POST("/projects/:id/collaboration-request", collabHandler.RequestCollaboration)
		protected.GET("/projects/:id/collaboration-requests", collabHandler.ListProjectRequests)
		protected.POST("/collaboration-requests/:requestId/approve", collabHandler.Approve)
		protected.POST("/collaboration-requests/:requestId/reject", collabHandler.Reject)
		protected.GET("/my-collaboration-requests", collabHandler.ListMyRequests)
		protected.GET("/my-projects/contributing", collabHandler.ListContributing)
		protected.DELETE("/projects/:id/collaborators/:userId", collabHandler.RemoveCollaborator)
	}

	return &testEnv{db: db, router: r}
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.org",
		Name:     username,
		Role:     "user",
		IsActive: true,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (e *testEnv) createProject(t *testing.T, author *models.User, status string) *models.Project {
	t.Helper()
	project := &models.Project{
		Title:               "Atmospheric Rivers Study",
		Visibility:          "public",
		CollaborationStatus: status,
		AuthorID:            author.ID,
	}
	if err := e.db.Create(project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return project
}

func (e *testEnv) do(t *testing.T, user *models.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, 1)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode envelope: %v, body: %s", err, w.Body.String())
	}
	return resp
}

func TestCollaborationEndpoints_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "ada")
	requester := env.createUser(t, "grace")
	project := env.createProject(t, author, models.CollabStatusSeeking)

	// Submit a request
	w := env.do(t, requester, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/collaboration-request", project.ID),
		gin.H{"reason": "I model atmospheric moisture transport", "expertise": "climate modelling"})
	if w.Code != http.StatusCreated {
		t.Fatalf("request status = %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	if !resp.Success {
		t.Fatal("success should be true")
	}

	data := resp.Data.(map[string]interface{})
	request := data["request"].(map[string]interface{})
	requestID := uint(request["id"].(float64))
	if request["status"] != models.RequestStatusPending {
		t.Errorf("request status = %v, expected pending", request["status"])
	}

	// Owner lists pending requests
	w = env.do(t, author, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/collaboration-requests?status=pending", project.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body: %s", w.Code, w.Body.String())
	}

	// Owner approves
	w = env.do(t, author, http.MethodPost,
		fmt.Sprintf("/api/collaboration-requests/%d/approve", requestID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body: %s", w.Code, w.Body.String())
	}

	// Requester now sees the project in their contributing list
	w = env.do(t, requester, http.MethodGet, "/api/my-projects/contributing", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("contributing status = %d", w.Code)
	}
	resp = decodeEnvelope(t, w)
	contributing := resp.Data.(map[string]interface{})
	if total := contributing["total"].(float64); total != 1 {
		t.Errorf("contributing total = %v, expected 1", total)
	}

	// Project view shows collaborator membership
	w = env.do(t, requester, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get project status = %d", w.Code)
	}
	resp = decodeEnvelope(t, w)
	view := resp.Data.(map[string]interface{})
	if view["is_collaborator"] != true {
		t.Error("is_collaborator should be true after approval")
	}
	if view["can_request"] != false {
		t.Error("can_request should be false for a collaborator")
	}

	// Owner removes the collaborator
	w = env.do(t, author, http.MethodDelete,
		fmt.Sprintf("/api/projects/%d/collaborators/%d", project.ID, requester.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove status = %d, body: %s", w.Code, w.Body.String())
	}
	resp = decodeEnvelope(t, w)
	removed := resp.Data.(map[string]interface{})
	if count := removed["collaborator_count"].(float64); count != 0 {
		t.Errorf("collaborator_count = %v, expected 0", count)
	}
}

func TestCollaborationEndpoints_ErrorEnvelope(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "ada")
	requester := env.createUser(t, "grace")
	project := env.createProject(t, author, models.CollabStatusSolo)

	// Solo project refuses requests with a 400 envelope
	w := env.do(t, requester, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/collaboration-request", project.ID),
		gin.H{"reason": "please"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400, body: %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	if resp.Success {
		t.Error("success should be false")
	}
	if !strings.Contains(resp.Error, "not open for collaboration") {
		t.Errorf("error = %q", resp.Error)
	}

	// Non-owner listing requests gets 403
	w = env.do(t, requester, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/collaboration-requests", project.ID), nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("list as non-owner status = %d, expected 403", w.Code)
	}

	// Unknown request gets 404
	w = env.do(t, author, http.MethodPost, "/api/collaboration-requests/424242/approve", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("approve unknown status = %d, expected 404", w.Code)
	}

	// Unauthenticated access gets 401
	req := httptest.NewRequest(http.MethodGet, "/api/my-collaboration-requests", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, expected 401", rec.Code)
	}
}

func TestRejectEndpoint_OptionalBody(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "ada")
	requester := env.createUser(t, "grace")
	project := env.createProject(t, author, models.CollabStatusSeeking)

	w := env.do(t, requester, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/collaboration-request", project.ID),
		gin.H{"reason": "let me in"})
	if w.Code != http.StatusCreated {
		t.Fatalf("request status = %d", w.Code)
	}
	resp := decodeEnvelope(t, w)
	request := resp.Data.(map[string]interface{})["request"].(map[string]interface{})
	requestID := uint(request["id"].(float64))

	// Reject with no body at all
	w = env.do(t, author, http.MethodPost,
		fmt.Sprintf("/api/collaboration-requests/%d/reject", requestID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reject status = %d, body: %s", w.Code, w.Body.String())
	}

	var fresh models.CollaborationRequest
	env.db.First(&fresh, requestID)
	if fresh.Status != models.RequestStatusRejected {
		t.Errorf("status = %q, expected rejected", fresh.Status)
	}
	if fresh.RejectionReason != "" {
		t.Errorf("rejection reason = %q, expected empty", fresh.RejectionReason)
	}
}
