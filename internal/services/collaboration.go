package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scholarpoint/scholarpoint/internal/models"
	"github.com/scholarpoint/scholarpoint/pkg/response"
	"gorm.io/gorm"
)

// CollaborationService implements the collaboration request workflow:
// submitting requests, owner approval/rejection, and keeping the project's
// collaboration_info journey and approved_collaborators membership list in
// sync with the request table.
type CollaborationService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewCollaborationService(db *gorm.DB, notifier *NotificationService) *CollaborationService {
	return &CollaborationService{db: db, notifier: notifier}
}

type CollaborationRequestInput struct {
	Reason    string `json:"reason"`
	Expertise string `json:"expertise"`
}

type RejectRequestInput struct {
	RejectionReason string `json:"rejection_reason"`
}

type RequestListResponse struct {
	Total    int64                         `json:"total"`
	Requests []models.CollaborationRequest `json:"requests"`
}

type ContributingProjectsResponse struct {
	Total    int64            `json:"total"`
	Projects []models.Project `json:"projects"`
}

// CollaborationOverview partitions a project's collaboration_info entries by
// status for the owner-only management view.
type CollaborationOverview struct {
	Pending       []models.CollaborationInfoEntry `json:"pending"`
	Approved      []models.CollaborationInfoEntry `json:"approved"`
	Rejected      []models.CollaborationInfoEntry `json:"rejected"`
	PendingCount  int                             `json:"pending_count"`
	ApprovedCount int                             `json:"approved_count"`
	RejectedCount int                             `json:"rejected_count"`
}

// ProjectView is the derived per-viewer read model of a project.
type ProjectView struct {
	Project        *models.Project              `json:"project"`
	IsOwner        bool                         `json:"is_owner"`
	IsCollaborator bool                         `json:"is_collaborator"`
	CanRequest     bool                         `json:"can_request"`
	LatestRequest  *models.CollaborationRequest `json:"latest_request,omitempty"`
	Overview       *CollaborationOverview       `json:"collaboration_overview,omitempty"`
}

// RequestCollaboration submits a collaboration request from requesterID on
// projectID. Validations run in order; the first failure wins.
func (s *CollaborationService) RequestCollaboration(projectID, requesterID uint, in *CollaborationRequestInput) (*models.CollaborationRequest, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, response.NewValidation("reason required")
	}
	expertise := strings.TrimSpace(in.Expertise)

	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}

	if project.CollaborationStatus == models.CollabStatusSolo {
		return nil, response.NewConflict("project is not open for collaboration")
	}
	if requesterID == project.AuthorID {
		return nil, response.NewConflict("cannot request collaboration on your own project")
	}
	if project.HasCollaborator(requesterID) {
		return nil, response.NewConflict("already a collaborator on this project")
	}

	var pendingCount int64
	s.db.Model(&models.CollaborationRequest{}).
		Where("project_id = ? AND requester_id = ? AND status = ?", projectID, requesterID, models.RequestStatusPending).
		Count(&pendingCount)
	if pendingCount > 0 {
		return nil, response.NewConflict("a pending request for this project already exists")
	}

	var requester models.User
	if err := s.db.First(&requester, requesterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("requester not found")
		}
		return nil, err
	}

	now := time.Now()
	request := models.CollaborationRequest{
		UUID:        uuid.NewString(),
		ProjectID:   project.ID,
		RequesterID: requester.ID,
		Status:      models.RequestStatusPending,
		Reason:      reason,
		Expertise:   expertise,
		RequestedAt: now,
	}
	if err := s.db.Create(&request).Error; err != nil {
		return nil, err
	}

	// One journey entry per user: a re-request after a rejection updates the
	// existing entry instead of appending a duplicate.
	if idx := project.InfoEntryIndex(requester.ID); idx >= 0 {
		entry := &project.CollaborationInfo[idx]
		entry.Status = models.RequestStatusPending
		entry.Reason = reason
		entry.Expertise = expertise
		entry.RejectionReason = ""
		entry.RequestedAt = now
		entry.UpdatedAt = now
	} else {
		project.CollaborationInfo = append(project.CollaborationInfo, models.CollaborationInfoEntry{
			UserID:      requester.ID,
			UserEmail:   requester.Email,
			UserName:    requester.Name,
			Status:      models.RequestStatusPending,
			Reason:      reason,
			Expertise:   expertise,
			RequestedAt: now,
			UpdatedAt:   now,
		})
	}
	if err := s.db.Save(&project).Error; err != nil {
		return nil, err
	}

	LogActivity("collaboration", "request_submitted", "collaboration requested on project "+project.Title, &requester.ID, &request)

	if s.notifier != nil {
		s.notifier.NotifyRequestReceived(&project, &requester, &request)
	}

	request.Project = &project
	request.Requester = &requester
	return &request, nil
}

// ApproveRequest transitions a pending request to approved, adds the
// requester to the project's collaborator list, and flips a seeking project
// to collaborative. Only the project author may approve.
func (s *CollaborationService) ApproveRequest(requestID, actorID uint) (*models.CollaborationRequest, error) {
	request, project, requester, err := s.loadPendingRequest(requestID, actorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		request.Status = models.RequestStatusApproved
		request.RespondedAt = &now
		if err := tx.Save(request).Error; err != nil {
			return err
		}

		project.ApprovedCollaborators = append(project.ApprovedCollaborators, models.ApprovedCollaborator{
			UserID:     request.RequesterID,
			ApprovedAt: now,
		})
		project.CollaboratorCount = len(project.ApprovedCollaborators)
		if project.CollaborationStatus == models.CollabStatusSeeking {
			project.CollaborationStatus = models.CollabStatusCollaborative
		}

		if idx := project.InfoEntryIndex(request.RequesterID); idx >= 0 {
			project.CollaborationInfo[idx].Status = models.RequestStatusApproved
			project.CollaborationInfo[idx].UpdatedAt = now
		} else {
			// Journey entry missing; synthesize one from the request.
			project.CollaborationInfo = append(project.CollaborationInfo, models.CollaborationInfoEntry{
				UserID:      request.RequesterID,
				UserEmail:   requester.Email,
				UserName:    requester.Name,
				Status:      models.RequestStatusApproved,
				Reason:      request.Reason,
				Expertise:   request.Expertise,
				RequestedAt: request.RequestedAt,
				UpdatedAt:   now,
			})
		}

		return tx.Save(project).Error
	})
	if err != nil {
		return nil, err
	}

	LogActivity("collaboration", "request_approved", "collaboration request approved on project "+project.Title, &actorID, request)

	if s.notifier != nil {
		s.notifier.NotifyRequestApproved(project, requester, request)
	}

	request.Project = project
	request.Requester = requester
	return request, nil
}

// RejectRequest transitions a pending request to rejected with an optional
// reason. The collaborator list and collaboration status are untouched.
func (s *CollaborationService) RejectRequest(requestID, actorID uint, in *RejectRequestInput) (*models.CollaborationRequest, error) {
	request, project, requester, err := s.loadPendingRequest(requestID, actorID)
	if err != nil {
		return nil, err
	}

	rejectionReason := ""
	if in != nil {
		rejectionReason = strings.TrimSpace(in.RejectionReason)
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		request.Status = models.RequestStatusRejected
		request.RejectionReason = rejectionReason
		request.RespondedAt = &now
		if err := tx.Save(request).Error; err != nil {
			return err
		}

		if idx := project.InfoEntryIndex(request.RequesterID); idx >= 0 {
			project.CollaborationInfo[idx].Status = models.RequestStatusRejected
			project.CollaborationInfo[idx].RejectionReason = rejectionReason
			project.CollaborationInfo[idx].UpdatedAt = now
		} else {
			project.CollaborationInfo = append(project.CollaborationInfo, models.CollaborationInfoEntry{
				UserID:          request.RequesterID,
				UserEmail:       requester.Email,
				UserName:        requester.Name,
				Status:          models.RequestStatusRejected,
				Reason:          request.Reason,
				Expertise:       request.Expertise,
				RejectionReason: rejectionReason,
				RequestedAt:     request.RequestedAt,
				UpdatedAt:       now,
			})
		}

		return tx.Save(project).Error
	})
	if err != nil {
		return nil, err
	}

	LogActivity("collaboration", "request_rejected", "collaboration request rejected on project "+project.Title, &actorID, request)

	if s.notifier != nil {
		s.notifier.NotifyRequestRejected(project, requester, request)
	}

	request.Project = project
	request.Requester = requester
	return request, nil
}

// loadPendingRequest fetches a request plus its project and requester, and
// runs the shared approve/reject preconditions: existence, ownership, still
// pending.
func (s *CollaborationService) loadPendingRequest(requestID, actorID uint) (*models.CollaborationRequest, *models.Project, *models.User, error) {
	var request models.CollaborationRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, response.NewNotFound("collaboration request not found")
		}
		return nil, nil, nil, err
	}

	var project models.Project
	if err := s.db.First(&project, request.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, response.NewNotFound("project not found")
		}
		return nil, nil, nil, err
	}

	if !IsProjectOwner(&project, actorID) {
		return nil, nil, nil, response.NewForbidden("only the project author can respond to collaboration requests")
	}

	if request.IsTerminal() {
		return nil, nil, nil, response.NewConflict("request already " + request.Status)
	}

	var requester models.User
	if err := s.db.First(&requester, request.RequesterID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, err
		}
		// Requester account gone; proceed with an empty profile.
		requester = models.User{ID: request.RequesterID}
	}

	return &request, &project, &requester, nil
}

// RemoveCollaborator filters collaboratorID out of the project's approved
// collaborator list. Only the owner may remove. The collaboration_info entry
// keeps its approved status; removal is membership-only.
func (s *CollaborationService) RemoveCollaborator(projectID, collaboratorID, actorID uint) (int, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, response.NewNotFound("project not found")
		}
		return 0, err
	}

	if !IsProjectOwner(&project, actorID) {
		return 0, response.NewForbidden("only the project author can remove collaborators")
	}

	kept := project.ApprovedCollaborators[:0]
	for _, c := range project.ApprovedCollaborators {
		if c.UserID != collaboratorID {
			kept = append(kept, c)
		}
	}
	project.ApprovedCollaborators = kept
	project.CollaboratorCount = len(kept)

	if err := s.db.Save(&project).Error; err != nil {
		return 0, err
	}

	LogActivity("collaboration", "collaborator_removed", "collaborator removed from project "+project.Title, &actorID, map[string]uint{"collaborator_id": collaboratorID})

	return project.CollaboratorCount, nil
}

// ListProjectRequests returns a project's collaboration requests, optionally
// filtered by status. Owner only.
func (s *CollaborationService) ListProjectRequests(projectID, actorID uint, status string) (*RequestListResponse, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}

	if !IsProjectOwner(&project, actorID) {
		return nil, response.NewForbidden("only the project author can view collaboration requests")
	}

	query := s.db.Model(&models.CollaborationRequest{}).Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var requests []models.CollaborationRequest
	if err := query.Preload("Requester").Order("requested_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}

	return &RequestListResponse{Total: total, Requests: requests}, nil
}

// ListMyRequests returns the requests the user has submitted, newest first.
func (s *CollaborationService) ListMyRequests(userID uint, status string) (*RequestListResponse, error) {
	query := s.db.Model(&models.CollaborationRequest{}).Where("requester_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var requests []models.CollaborationRequest
	if err := query.Preload("Project").Order("requested_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}

	return &RequestListResponse{Total: total, Requests: requests}, nil
}

// ListContributingProjects returns the projects the user currently
// contributes to: an approved request whose membership was not since revoked.
func (s *CollaborationService) ListContributingProjects(userID uint) (*ContributingProjectsResponse, error) {
	var projectIDs []uint
	if err := s.db.Model(&models.CollaborationRequest{}).
		Where("requester_id = ? AND status = ?", userID, models.RequestStatusApproved).
		Distinct("project_id").
		Pluck("project_id", &projectIDs).Error; err != nil {
		return nil, err
	}

	projects := make([]models.Project, 0, len(projectIDs))
	if len(projectIDs) > 0 {
		var candidates []models.Project
		if err := s.db.Preload("Author").Where("id IN ?", projectIDs).Order("updated_at DESC").Find(&candidates).Error; err != nil {
			return nil, err
		}
		// An approved request alone is not enough: the owner may have removed
		// the collaborator afterwards.
		for _, p := range candidates {
			if IsActiveCollaborator(&p, userID) {
				projects = append(projects, p)
			}
		}
	}

	return &ContributingProjectsResponse{Total: int64(len(projects)), Projects: projects}, nil
}

// BuildProjectView computes the derived per-viewer read model for a project.
func (s *CollaborationService) BuildProjectView(project *models.Project, viewerID uint) (*ProjectView, error) {
	view := &ProjectView{
		Project:        project,
		IsOwner:        IsProjectOwner(project, viewerID),
		IsCollaborator: IsActiveCollaborator(project, viewerID),
	}

	var latest models.CollaborationRequest
	err := s.db.Where("project_id = ? AND requester_id = ?", project.ID, viewerID).
		Order("requested_at DESC").First(&latest).Error
	switch {
	case err == nil:
		view.LatestRequest = &latest
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No request yet
	default:
		return nil, err
	}

	view.CanRequest = !view.IsOwner &&
		!view.IsCollaborator &&
		project.CollaborationStatus != models.CollabStatusSolo &&
		(view.LatestRequest == nil || view.LatestRequest.Status == models.RequestStatusRejected)

	if view.IsOwner {
		overview := &CollaborationOverview{
			Pending:  []models.CollaborationInfoEntry{},
			Approved: []models.CollaborationInfoEntry{},
			Rejected: []models.CollaborationInfoEntry{},
		}
		for _, e := range project.CollaborationInfo {
			switch e.Status {
			case models.RequestStatusPending:
				overview.Pending = append(overview.Pending, e)
			case models.RequestStatusApproved:
				overview.Approved = append(overview.Approved, e)
			case models.RequestStatusRejected:
				overview.Rejected = append(overview.Rejected, e)
			}
		}
		overview.PendingCount = len(overview.Pending)
		overview.ApprovedCount = len(overview.Approved)
		overview.RejectedCount = len(overview.Rejected)
		view.Overview = overview
	}

	return view, nil
}
