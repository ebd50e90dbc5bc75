package services

import "github.com/scholarpoint/scholarpoint/internal/models"

// Stateless ownership and membership predicates. Kept separate from the
// workflow so authorization rules stay uniform and testable in isolation.

// IsProjectOwner reports whether userID is the author of the project.
func IsProjectOwner(p *models.Project, userID uint) bool {
	return p != nil && p.AuthorID == userID
}

// IsActiveCollaborator reports whether userID currently appears in the
// project's approved collaborator list.
func IsActiveCollaborator(p *models.Project, userID uint) bool {
	return p != nil && p.HasCollaborator(userID)
}
