package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/scholarpoint/scholarpoint/internal/models"
	"github.com/scholarpoint/scholarpoint/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService builds collaboration emails and hands them to the task
// queue. Enqueue and delivery failures are logged, never surfaced: a mail
// outage must not fail the state change that triggered it.
type NotificationService struct {
	db    *gorm.DB
	email *EmailService
	queue TaskQueue
}

func NewNotificationService(db *gorm.DB, queue TaskQueue) *NotificationService {
	return &NotificationService{
		db:    db,
		email: NewEmailService(db),
		queue: queue,
	}
}

// NotifyRequestReceived mails the project owner about a new collaboration
// request.
func (s *NotificationService) NotifyRequestReceived(project *models.Project, requester *models.User, request *models.CollaborationRequest) {
	var owner models.User
	if err := s.db.First(&owner, project.AuthorID).Error; err != nil {
		logger.Warnf("[Notification] Owner %d not found for project %d: %v", project.AuthorID, project.ID, err)
		return
	}

	s.enqueue(&NotificationTask{
		Kind:           NotifyKindRequestReceived,
		To:             owner.Email,
		ToName:         owner.Name,
		ProjectID:      project.ID,
		ProjectTitle:   project.Title,
		RequesterName:  requester.Name,
		RequesterEmail: requester.Email,
		Reason:         request.Reason,
		Expertise:      request.Expertise,
	})
}

// NotifyRequestApproved mails the requester that their request was approved.
func (s *NotificationService) NotifyRequestApproved(project *models.Project, requester *models.User, request *models.CollaborationRequest) {
	s.enqueue(&NotificationTask{
		Kind:         NotifyKindRequestApproved,
		To:           requester.Email,
		ToName:       requester.Name,
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
	})
}

// NotifyRequestRejected mails the requester that their request was rejected.
func (s *NotificationService) NotifyRequestRejected(project *models.Project, requester *models.User, request *models.CollaborationRequest) {
	s.enqueue(&NotificationTask{
		Kind:            NotifyKindRequestRejected,
		To:              requester.Email,
		ToName:          requester.Name,
		ProjectID:       project.ID,
		ProjectTitle:    project.Title,
		RejectionReason: request.RejectionReason,
	})
}

// NotifyPendingDigest mails a project owner a reminder about requests still
// awaiting a response.
func (s *NotificationService) NotifyPendingDigest(owner *models.User, project *models.Project, pendingCount int) {
	s.enqueue(&NotificationTask{
		Kind:         NotifyKindPendingDigest,
		To:           owner.Email,
		ToName:       owner.Name,
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		PendingCount: pendingCount,
	})
}

func (s *NotificationService) enqueue(task *NotificationTask) {
	if task.To == "" {
		logger.Warnf("[Notification] No recipient address for %s on project %d, skipping", task.Kind, task.ProjectID)
		return
	}
	if s.queue == nil {
		logger.Warnf("[Notification] No task queue configured, dropping %s", task.Kind)
		return
	}
	if err := s.queue.Enqueue(task); err != nil {
		logger.Errorf("[Notification] Failed to enqueue %s for project %d: %v", task.Kind, task.ProjectID, err)
	}
}

// Deliver renders and sends a queued notification. Used as the task queue
// processor.
func (s *NotificationService) Deliver(ctx context.Context, task *NotificationTask) error {
	subject, body := BuildNotificationEmail(task)
	if subject == "" {
		logger.Warnf("[Notification] Unknown notification kind %q, dropping", task.Kind)
		return nil
	}
	return s.email.Send([]string{task.To}, subject, body)
}

// BuildNotificationEmail renders the subject and HTML body for a task.
func BuildNotificationEmail(task *NotificationTask) (subject, body string) {
	switch task.Kind {
	case NotifyKindRequestReceived:
		subject = fmt.Sprintf("[ScholarPoint] New collaboration request: %s", task.ProjectTitle)
		body = buildRequestReceivedBody(task)
	case NotifyKindRequestApproved:
		subject = fmt.Sprintf("[ScholarPoint] Collaboration request approved: %s", task.ProjectTitle)
		body = buildRequestApprovedBody(task)
	case NotifyKindRequestRejected:
		subject = fmt.Sprintf("[ScholarPoint] Collaboration request update: %s", task.ProjectTitle)
		body = buildRequestRejectedBody(task)
	case NotifyKindPendingDigest:
		subject = fmt.Sprintf("[ScholarPoint] %d pending collaboration request(s): %s", task.PendingCount, task.ProjectTitle)
		body = buildPendingDigestBody(task)
	}
	return subject, body
}

func emailShell(title string, content func(sb *strings.Builder)) string {
	var sb strings.Builder
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString(fmt.Sprintf("<h2>%s</h2>", title))
	content(&sb)
	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">Powered by ScholarPoint</p>")
	sb.WriteString("</body></html>")
	return sb.String()
}

func buildRequestReceivedBody(task *NotificationTask) string {
	return emailShell("New Collaboration Request", func(sb *strings.Builder) {
		sb.WriteString("<table style=\"border-collapse: collapse; margin-bottom: 20px;\">")
		rows := []struct{ label, value string }{
			{"Project", task.ProjectTitle},
			{"Requester", task.RequesterName},
			{"Email", task.RequesterEmail},
		}
		if task.Expertise != "" {
			rows = append(rows, struct{ label, value string }{"Expertise", task.Expertise})
		}
		for _, r := range rows {
			sb.WriteString(fmt.Sprintf("<tr><td style=\"padding: 8px; border: 1px solid #ddd; font-weight: bold;\">%s</td><td style=\"padding: 8px; border: 1px solid #ddd;\">%s</td></tr>", r.label, r.value))
		}
		sb.WriteString("</table>")

		sb.WriteString("<h3>Why they want to collaborate</h3>")
		sb.WriteString(fmt.Sprintf("<div style=\"background: #f9f9f9; padding: 16px; border-radius: 4px; white-space: pre-wrap;\">%s</div>", task.Reason))
		sb.WriteString("<p>Review this request from your project's collaboration page.</p>")
	})
}

func buildRequestApprovedBody(task *NotificationTask) string {
	return emailShell("Collaboration Request Approved", func(sb *strings.Builder) {
		sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", task.ToName))
		sb.WriteString(fmt.Sprintf("<p>Your request to collaborate on <strong>%s</strong> has been approved. You can now contribute to the project.</p>", task.ProjectTitle))
	})
}

func buildRequestRejectedBody(task *NotificationTask) string {
	return emailShell("Collaboration Request Update", func(sb *strings.Builder) {
		sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", task.ToName))
		sb.WriteString(fmt.Sprintf("<p>Your request to collaborate on <strong>%s</strong> was not accepted.</p>", task.ProjectTitle))
		if task.RejectionReason != "" {
			sb.WriteString("<h3>Message from the author</h3>")
			sb.WriteString(fmt.Sprintf("<div style=\"background: #f9f9f9; padding: 16px; border-radius: 4px; white-space: pre-wrap;\">%s</div>", task.RejectionReason))
		} else {
			sb.WriteString("<p>The project author did not provide additional details.</p>")
		}
	})
}

func buildPendingDigestBody(task *NotificationTask) string {
	return emailShell("Pending Collaboration Requests", func(sb *strings.Builder) {
		sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", task.ToName))
		sb.WriteString(fmt.Sprintf("<p>Your project <strong>%s</strong> has %d collaboration request(s) waiting for a response.</p>", task.ProjectTitle, task.PendingCount))
	})
}
