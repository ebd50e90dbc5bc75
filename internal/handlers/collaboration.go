package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scholarpoint/scholarpoint/internal/middleware"
	"github.com/scholarpoint/scholarpoint/internal/services"
	"github.com/scholarpoint/scholarpoint/pkg/response"
)

type CollaborationHandler struct {
	collabService *services.CollaborationService
}

func NewCollaborationHandler(collabService *services.CollaborationService) *CollaborationHandler {
	return &CollaborationHandler{collabService: collabService}
}

// RequestCollaboration submits a collaboration request on a project
// POST /api/projects/:id/collaboration-request
func (h *CollaborationHandler) RequestCollaboration(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var in services.CollaborationRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	request, err := h.collabService.RequestCollaboration(uint(projectID), middleware.GetUserID(c), &in)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"request": request})
}

// ListProjectRequests returns a project's collaboration requests (owner only)
// GET /api/projects/:id/collaboration-requests
func (h *CollaborationHandler) ListProjectRequests(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	resp, err := h.collabService.ListProjectRequests(uint(projectID), middleware.GetUserID(c), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// Approve approves a pending collaboration request (owner only)
// POST /api/collaboration-requests/:requestId/approve
func (h *CollaborationHandler) Approve(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("requestId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}

	request, err := h.collabService.ApproveRequest(uint(requestID), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"request": request})
}

// Reject rejects a pending collaboration request (owner only)
// POST /api/collaboration-requests/:requestId/reject
func (h *CollaborationHandler) Reject(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("requestId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}

	var in services.RejectRequestInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	request, err := h.collabService.RejectRequest(uint(requestID), middleware.GetUserID(c), &in)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"request": request})
}

// ListMyRequests returns the authenticated user's collaboration requests
// GET /api/my-collaboration-requests
func (h *CollaborationHandler) ListMyRequests(c *gin.Context) {
	resp, err := h.collabService.ListMyRequests(middleware.GetUserID(c), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// ListContributing returns the projects the user collaborates on
// GET /api/my-projects/contributing
func (h *CollaborationHandler) ListContributing(c *gin.Context) {
	resp, err := h.collabService.ListContributingProjects(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// RemoveCollaborator removes an approved collaborator from a project (owner only)
// DELETE /api/projects/:id/collaborators/:userId
func (h *CollaborationHandler) RemoveCollaborator(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	collaboratorID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	count, err := h.collabService.RemoveCollaborator(uint(projectID), uint(collaboratorID), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"collaborator_count": count})
}
