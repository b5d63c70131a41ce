package repository

import (
	"errors"
	"log"

	"github.com/bchristie/brutons-tribunal/internal/domain"
	"gorm.io/gorm"
)

const defaultAuditLimit = 50

// AuditLogRepository is append-only: rows are written exactly once per action
// and never updated or deleted here. Writes are not retried; best-effort
// delivery is the caller's contract.
type AuditLogRepository interface {
	Log(entry *domain.AuditLog) error
	LogInvitationSent(email string, performedByID uint) error

	FindByIDWithUsers(id uint) (*domain.AuditLog, error)
	FindRecentWithUsers(limit int) ([]domain.AuditLog, error)
	FindByAction(action string, limit int) ([]domain.AuditLog, error)
	FindByUserID(userID uint, limit int) ([]domain.AuditLog, error)
	FindByPerformedByID(performedByID uint, limit int) ([]domain.AuditLog, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Log(entry *domain.AuditLog) error {
	if entry == nil {
		return errors.New("nil audit entry")
	}
	if entry.Action == "" || entry.EntityType == "" || entry.PerformedByID == 0 {
		return errors.New("audit entry requires action, entity type and actor")
	}

	if err := r.db.Create(entry).Error; err != nil {
		log.Printf("audit log write error: %v", err)
		return errors.New("failed to write audit log")
	}
	return nil
}

// LogInvitationSent records an invitation. The invitee has no user row yet,
// so EntityID stays nil and the email rides in the metadata.
func (r *auditLogRepository) LogInvitationSent(email string, performedByID uint) error {
	return r.Log(&domain.AuditLog{
		Action:        domain.AuditInvitationSent,
		EntityType:    "User",
		Metadata:      domain.JSONMap{"email": email},
		PerformedByID: performedByID,
	})
}

func (r *auditLogRepository) FindByIDWithUsers(id uint) (*domain.AuditLog, error) {
	entry := &domain.AuditLog{}
	err := r.db.
		Preload("PerformedBy").
		Preload("User").
		First(entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("find audit log by id error: %v", err)
		return nil, errors.New("failed to find audit log")
	}
	return entry, nil
}

func (r *auditLogRepository) FindRecentWithUsers(limit int) ([]domain.AuditLog, error) {
	return r.find(r.db, limit)
}

func (r *auditLogRepository) FindByAction(action string, limit int) ([]domain.AuditLog, error) {
	return r.find(r.db.Where("action = ?", action), limit)
}

func (r *auditLogRepository) FindByUserID(userID uint, limit int) ([]domain.AuditLog, error) {
	return r.find(r.db.Where("user_id = ?", userID), limit)
}

func (r *auditLogRepository) FindByPerformedByID(performedByID uint, limit int) ([]domain.AuditLog, error) {
	return r.find(r.db.Where("performed_by_id = ?", performedByID), limit)
}

func (r *auditLogRepository) find(tx *gorm.DB, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	var entries []domain.AuditLog
	err := tx.
		Preload("PerformedBy").
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		log.Printf("find audit logs error: %v", err)
		return nil, errors.New("failed to find audit logs")
	}
	return entries, nil
}
