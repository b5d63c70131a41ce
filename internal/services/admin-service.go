package services

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/bchristie/brutons-tribunal/internal/domain"
	"github.com/bchristie/brutons-tribunal/internal/dto"
	"github.com/bchristie/brutons-tribunal/internal/helper"
	"github.com/bchristie/brutons-tribunal/internal/interfaces"
	"github.com/bchristie/brutons-tribunal/internal/repository"
	"gorm.io/gorm"
)

const inviteTokenTTL = 72 * time.Hour

type AdminService interface {
	InviteUser(adminID uint, email, ipAddress string) error

	SetRoles(adminID, userID uint, input dto.SetRolesRequest, ipAddress string) error
	SetStatus(adminID, userID uint, status, ipAddress string) error
	GrantPermission(adminID, roleID uint, input dto.GrantPermissionRequest, ipAddress string) error
	RevokePermission(adminID, roleID, permissionID uint, ipAddress string) error

	ListRoles(limit, offset int) ([]dto.RoleResponse, error)
	GetUserRoles(userID uint) (dto.UserRolesResponse, error)
}

type adminService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	auditRepo repository.AuditLogRepository
	auth      helper.Auth

	// messaging
	producer interfaces.ProducerHandler
}

func NewAdminService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditLogRepository,
	producer interfaces.ProducerHandler,
	auth helper.Auth,
) AdminService {
	return &adminService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		auditRepo: auditRepo,
		producer:  producer,
		auth:      auth,
	}
}

// InviteUser publishes an invitation email event for the mailer. The audit
// write afterwards is best-effort: the invitation already went out, so a
// failing audit store must not turn the call into an error.
func (s *adminService) InviteUser(adminID uint, email, ipAddress string) error {
	if adminID == 0 {
		return errors.New("unauthorized")
	}

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return errors.New("email is required")
	}

	existing, err := s.userRepo.FindUserByEmail(email)
	if err == nil && existing != nil && existing.ID != 0 {
		return errors.New("email already registered")
	}

	admin, err := s.userRepo.FindUserById(adminID)
	if err != nil || admin == nil {
		return errors.New("inviting user not found")
	}

	token, exp, err := s.auth.GenerateInviteToken(email, inviteTokenTTL)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(dto.InviteEmailEvent{
		Email:     email,
		InvitedBy: admin.DisplayName,
		Token:     token,
		ExpiresAt: exp.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if s.producer == nil {
		return errors.New("mail producer not configured")
	}
	if err := s.producer.PublishMessage([]byte(dto.EventInviteEmail), payload); err != nil {
		return errors.New("failed to send invitation")
	}

	s.audit(&domain.AuditLog{
		Action:        domain.AuditInvitationSent,
		EntityType:    "User",
		Metadata:      domain.JSONMap{"email": email},
		IPAddress:     optional(ipAddress),
		PerformedByID: adminID,
	})

	return nil
}

func (s *adminService) SetRoles(adminID, userID uint, input dto.SetRolesRequest, ipAddress string) error {
	if userID == 0 {
		return errors.New("invalid user id")
	}
	if len(input.Roles) == 0 {
		return errors.New("roles are required")
	}

	if _, err := s.userRepo.FindUserById(userID); err != nil {
		return errors.New("user not found")
	}

	var roleIDs []uint
	var roleNames []string
	for _, name := range input.Roles {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		role, err := s.roleRepo.FindByName(name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("unknown role: " + name)
			}
			return err
		}
		roleIDs = append(roleIDs, role.ID)
		roleNames = append(roleNames, role.Name)
	}
	if len(roleIDs) == 0 {
		return errors.New("roles are required")
	}

	if err := s.roleRepo.ReplaceUserRoles(userID, roleIDs); err != nil {
		return err
	}

	s.audit(&domain.AuditLog{
		Action:        domain.AuditRolesChanged,
		EntityType:    "User",
		EntityID:      &userID,
		Metadata:      domain.JSONMap{"roles": roleNames},
		IPAddress:     optional(ipAddress),
		PerformedByID: adminID,
		UserID:        &userID,
	})

	return nil
}

func (s *adminService) SetStatus(adminID, userID uint, status, ipAddress string) error {
	if userID == 0 {
		return errors.New("invalid user_id")
	}

	status = strings.TrimSpace(strings.ToLower(status))
	switch status {
	case "active", "suspended", "deleted":
	default:
		return errors.New("invalid status")
	}

	user, err := s.userRepo.FindUserById(userID)
	if err != nil || user == nil {
		return errors.New("user not found")
	}

	user.Status = status
	if err := s.userRepo.SaveUser(user); err != nil {
		return err
	}

	s.audit(&domain.AuditLog{
		Action:        domain.AuditStatusChanged,
		EntityType:    "User",
		EntityID:      &userID,
		Metadata:      domain.JSONMap{"status": status},
		IPAddress:     optional(ipAddress),
		PerformedByID: adminID,
		UserID:        &userID,
	})

	return nil
}

func (s *adminService) GrantPermission(adminID, roleID uint, input dto.GrantPermissionRequest, ipAddress string) error {
	perm, role, err := s.resolveGrant(roleID, input.Resource, input.Action)
	if err != nil {
		return err
	}

	if err := s.roleRepo.GrantPermission(role.ID, perm.ID); err != nil {
		if helper.IsUniqueViolation(err) {
			return errors.New("permission already granted")
		}
		return err
	}

	s.audit(&domain.AuditLog{
		Action:     domain.AuditPermissionGranted,
		EntityType: "Role",
		EntityID:   &role.ID,
		Metadata: domain.JSONMap{
			"role":     role.Name,
			"resource": perm.Resource,
			"action":   perm.Action,
		},
		IPAddress:     optional(ipAddress),
		PerformedByID: adminID,
	})

	return nil
}

func (s *adminService) RevokePermission(adminID, roleID, permissionID uint, ipAddress string) error {
	if roleID == 0 || permissionID == 0 {
		return errors.New("invalid role or permission id")
	}

	if err := s.roleRepo.RevokePermission(roleID, permissionID); err != nil {
		return err
	}

	s.audit(&domain.AuditLog{
		Action:        domain.AuditPermissionRevoked,
		EntityType:    "Role",
		EntityID:      &roleID,
		Metadata:      domain.JSONMap{"permission_id": permissionID},
		IPAddress:     optional(ipAddress),
		PerformedByID: adminID,
	})

	return nil
}

func (s *adminService) ListRoles(limit, offset int) ([]dto.RoleResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	roles, err := s.roleRepo.List(limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]dto.RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, dto.RoleResponse{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (s *adminService) GetUserRoles(userID uint) (dto.UserRolesResponse, error) {
	if userID == 0 {
		return dto.UserRolesResponse{}, errors.New("invalid user id")
	}

	roles, err := s.roleRepo.GetRolesByUserID(userID)
	if err != nil {
		return dto.UserRolesResponse{}, err
	}

	resp := dto.UserRolesResponse{UserID: userID, Roles: []dto.RoleResponse{}}
	for _, r := range roles {
		resp.Roles = append(resp.Roles, dto.RoleResponse{ID: r.ID, Name: r.Name})
	}
	return resp, nil
}

func (s *adminService) resolveGrant(roleID uint, resource, action string) (*domain.Permission, *domain.Role, error) {
	if roleID == 0 {
		return nil, nil, errors.New("invalid role id")
	}

	resource = strings.TrimSpace(resource)
	action = strings.TrimSpace(action)
	if resource == "" || action == "" {
		return nil, nil, errors.New("resource and action are required")
	}

	role, err := s.roleRepo.FindByID(roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.New("role not found")
		}
		return nil, nil, err
	}

	perm, err := s.roleRepo.FindPermission(resource, action)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.New("unknown permission")
		}
		return nil, nil, err
	}

	return perm, role, nil
}

// audit records the entry and swallows failure; the protected action has
// already committed by the time this runs.
func (s *adminService) audit(entry *domain.AuditLog) {
	if err := s.auditRepo.Log(entry); err != nil {
		log.Printf("audit write failed (non-fatal): action=%s actor=%d err=%v",
			entry.Action, entry.PerformedByID, err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
