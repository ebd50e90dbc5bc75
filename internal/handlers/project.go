package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scholarpoint/scholarpoint/internal/middleware"
	"github.com/scholarpoint/scholarpoint/internal/services"
	"github.com/scholarpoint/scholarpoint/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	collabService  *services.CollaborationService
}

func NewProjectHandler(db *gorm.DB, collabService *services.CollaborationService) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db),
		collabService:  collabService,
	}
}

// List returns paginated public projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projectService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetByID returns a project by ID with the viewer-specific read model
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	project, err := h.projectService.GetByID(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.collabService.BuildProjectView(project, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// Create publishes a new project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

// Update updates a project
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(uint(id), &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Delete deletes a project
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	if err := h.projectService.Delete(uint(id), middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "project deleted successfully", nil)
}
