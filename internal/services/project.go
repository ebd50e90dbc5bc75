package services

import (
	"errors"
	"strings"

	"github.com/scholarpoint/scholarpoint/internal/models"
	"github.com/scholarpoint/scholarpoint/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Title    string `form:"title"`
	Field    string `form:"field"`
	Status   string `form:"collaboration_status"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	Title               string `json:"title" binding:"required"`
	Abstract            string `json:"abstract"`
	Field               string `json:"field"`
	Keywords            string `json:"keywords"`
	Visibility          string `json:"visibility" binding:"omitempty,oneof=public private"`
	CollaborationStatus string `json:"collaboration_status" binding:"omitempty,oneof=solo seeking_collaborators collaborative"`
}

type UpdateProjectRequest struct {
	Title               string `json:"title"`
	Abstract            string `json:"abstract"`
	Field               string `json:"field"`
	Keywords            string `json:"keywords"`
	Visibility          string `json:"visibility" binding:"omitempty,oneof=public private"`
	CollaborationStatus string `json:"collaboration_status" binding:"omitempty,oneof=solo seeking_collaborators collaborative"`
}

// List returns paginated projects
func (s *ProjectService) List(req *ProjectListRequest) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var projects []models.Project
	var total int64

	query := s.db.Model(&models.Project{}).Where("visibility = ?", "public")

	if req.Title != "" {
		query = query.Where("title LIKE ?", "%"+req.Title+"%")
	}
	if req.Field != "" {
		query = query.Where("field = ?", req.Field)
	}
	if req.Status != "" {
		query = query.Where("collaboration_status = ?", req.Status)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Author").Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project by ID
func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("Author").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}

// Create publishes a new project authored by userID
func (s *ProjectService) Create(req *CreateProjectRequest, userID uint) (*models.Project, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, response.NewValidation("title required")
	}

	if req.Visibility == "" {
		req.Visibility = "public"
	}
	if req.CollaborationStatus == "" {
		req.CollaborationStatus = models.CollabStatusSolo
	}

	project := models.Project{
		Title:               title,
		Abstract:            req.Abstract,
		Field:               req.Field,
		Keywords:            req.Keywords,
		Visibility:          req.Visibility,
		CollaborationStatus: req.CollaborationStatus,
		AuthorID:            userID,
	}

	if err := s.db.Create(&project).Error; err != nil {
		return nil, err
	}

	LogActivity("project", "created", "project published: "+project.Title, &userID, nil)

	return &project, nil
}

// Update applies non-empty fields to a project. Author only.
func (s *ProjectService) Update(id uint, req *UpdateProjectRequest, actorID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}

	if !IsProjectOwner(&project, actorID) {
		return nil, response.NewForbidden("only the project author can update the project")
	}

	updates := make(map[string]interface{})

	if req.Title != "" {
		updates["title"] = strings.TrimSpace(req.Title)
	}
	if req.Abstract != "" {
		updates["abstract"] = req.Abstract
	}
	if req.Field != "" {
		updates["field"] = req.Field
	}
	if req.Keywords != "" {
		updates["keywords"] = req.Keywords
	}
	if req.Visibility != "" {
		updates["visibility"] = req.Visibility
	}
	if req.CollaborationStatus != "" {
		updates["collaboration_status"] = req.CollaborationStatus
	}

	if err := s.db.Model(&project).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// Delete removes a project and its collaboration requests. Author only.
func (s *ProjectService) Delete(id uint, actorID uint) error {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("project not found")
		}
		return err
	}

	if !IsProjectOwner(&project, actorID) {
		return response.NewForbidden("only the project author can delete the project")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.CollaborationRequest{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
}
