package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project collaboration modes
const (
	CollabStatusSolo          = "solo"
	CollabStatusSeeking       = "seeking_collaborators"
	CollabStatusCollaborative = "collaborative"
)

// Collaboration request / journey statuses
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// User represents a platform account
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string         `gorm:"size:255" json:"-"` // bcrypt hash
	Email     string         `gorm:"size:255" json:"email"`
	Name      string         `gorm:"size:200" json:"name"`
	Role      string         `gorm:"size:50;default:user" json:"role"` // admin, user
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ApprovedCollaborator is one entry of a project's materialized membership list.
type ApprovedCollaborator struct {
	UserID     uint      `json:"user_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

// CollaborationInfoEntry records one user's whole collaboration journey on a
// project. A user appears at most once; a new request after a rejection
// updates the existing entry in place.
type CollaborationInfoEntry struct {
	UserID          uint      `json:"user_id"`
	UserEmail       string    `json:"user_email"`
	UserName        string    `json:"user_name"`
	Status          string    `json:"status"` // pending, approved, rejected
	Reason          string    `json:"reason"`
	Expertise       string    `json:"expertise,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	RequestedAt     time.Time `json:"requested_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Project represents a published research project
type Project struct {
	ID                    uint                                        `gorm:"primaryKey" json:"id"`
	Title                 string                                      `gorm:"size:300;not null" json:"title"`
	Abstract              string                                      `gorm:"type:text" json:"abstract"`
	Field                 string                                      `gorm:"size:100;index" json:"field"`
	Keywords              string                                      `gorm:"size:500" json:"keywords"` // comma separated
	Visibility            string                                      `gorm:"size:20;default:public" json:"visibility"` // public, private
	CollaborationStatus   string                                      `gorm:"size:50;default:solo;index" json:"collaboration_status"`
	CollaboratorCount     int                                         `gorm:"default:0" json:"collaborator_count"`
	ApprovedCollaborators datatypes.JSONSlice[ApprovedCollaborator]   `json:"approved_collaborators"`
	CollaborationInfo     datatypes.JSONSlice[CollaborationInfoEntry] `json:"collaboration_info"`
	AuthorID              uint                                        `gorm:"index;not null" json:"author_id"`
	Author                *User                                       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CreatedAt             time.Time                                   `json:"created_at"`
	UpdatedAt             time.Time                                   `json:"updated_at"`
	DeletedAt             gorm.DeletedAt                              `gorm:"index" json:"-"`
}

// CollaborationRequest is the normalized one-row-per-request record.
// A request stays pending until the project author approves or rejects it;
// approved and rejected are terminal.
type CollaborationRequest struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UUID            string         `gorm:"uniqueIndex;size:36" json:"uuid"`
	ProjectID       uint           `gorm:"index;not null" json:"project_id"`
	Project         *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	RequesterID     uint           `gorm:"index;not null" json:"requester_id"`
	Requester       *User          `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Status          string         `gorm:"size:20;default:pending;index" json:"status"`
	Reason          string         `gorm:"type:text;not null" json:"reason"`
	Expertise       string         `gorm:"size:500" json:"expertise"`
	RejectionReason string         `gorm:"size:1000" json:"rejection_reason"`
	RequestedAt     time.Time      `json:"requested_at"`
	RespondedAt     *time.Time     `json:"responded_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// SystemConfig represents system-wide configuration (stored in database)
type SystemConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:20;default:string" json:"type"` // string, int, bool
	Group     string    `gorm:"size:50;index" json:"group"`         // general, email, reminder
	Label     string    `gorm:"size:200" json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityLog represents an auditable platform action
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module    string    `gorm:"size:100;index" json:"module"`
	Action    string    `gorm:"size:200;index" json:"action"`
	Message   string    `gorm:"type:text" json:"message"`
	UserID    *uint     `json:"user_id"`
	Extra     string    `gorm:"type:text" json:"extra"` // JSON extra data
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides
func (User) TableName() string                 { return "users" }
func (Project) TableName() string              { return "projects" }
func (CollaborationRequest) TableName() string { return "collaboration_requests" }
func (SystemConfig) TableName() string         { return "system_configs" }
func (ActivityLog) TableName() string          { return "activity_logs" }

// HasCollaborator reports whether userID is in the approved collaborator list.
func (p *Project) HasCollaborator(userID uint) bool {
	for _, c := range p.ApprovedCollaborators {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// InfoEntryIndex returns the index of userID's collaboration_info entry, or -1.
func (p *Project) InfoEntryIndex(userID uint) int {
	for i, e := range p.CollaborationInfo {
		if e.UserID == userID {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether the request has already been responded to.
func (r *CollaborationRequest) IsTerminal() bool {
	return r.Status == RequestStatusApproved || r.Status == RequestStatusRejected
}
