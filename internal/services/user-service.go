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
	"github.com/bchristie/brutons-tribunal/internal/helper/utils"
	"github.com/bchristie/brutons-tribunal/internal/interfaces"
	"github.com/bchristie/brutons-tribunal/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService interface {
	// Auth
	Register(input dto.RegisterRequest) error
	Login(input dto.UserLogin) (*domain.User, error)
	ForgotPassword(email string) error
	SetPassword(input dto.SetPasswordRequest) error

	// Profile
	GetProfile(userID uint) (*domain.User, error)
	GetPermissions(userID uint) (domain.UserPermissions, error)
}

type userService struct {
	repo     repository.UserRepository
	permRepo repository.PermissionRepository
	auth     helper.Auth

	// messaging
	producer interfaces.ProducerHandler
}

func NewUserService(
	repo repository.UserRepository,
	permRepo repository.PermissionRepository,
	producer interfaces.ProducerHandler,
	auth helper.Auth,
) UserService {
	return &userService{
		repo:     repo,
		permRepo: permRepo,
		producer: producer,
		auth:     auth,
	}
}

func (u *userService) Register(input dto.RegisterRequest) error {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	displayName := strings.TrimSpace(input.DisplayName)

	if email == "" || strings.TrimSpace(input.Password) == "" || displayName == "" {
		return errors.New("invalid inputs")
	}
	if len(input.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	// invited registrations must match the invited address
	if token := strings.TrimSpace(input.InviteToken); token != "" {
		invited, err := u.auth.VerifyInviteToken(token)
		if err != nil {
			return errors.New("invalid or expired invitation")
		}
		if !strings.EqualFold(invited, email) {
			return errors.New("invitation was issued for a different email")
		}
	}

	existing, err := u.repo.FindUserByEmail(email)
	if err == nil && existing != nil && existing.ID != 0 {
		return errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	newUser := &domain.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		DisplayName:  displayName,
		Status:       "active",
	}

	usr, err := u.repo.CreateUser(newUser)
	if err != nil {
		return err
	}
	if usr == nil || usr.ID == 0 {
		return errors.New("failed to create user")
	}

	// New accounts start with no roles. Access is granted by an admin
	// afterwards; an empty role set resolves to an empty permission set.
	return nil
}

func (u *userService) Login(input dto.UserLogin) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)

	if email == "" || password == "" {
		return nil, errors.New("invalid email or password")
	}

	user, err := u.repo.FindUserByEmail(email)
	if err != nil || user == nil || user.ID == 0 {
		return nil, errors.New("invalid email or password")
	}

	if user.Status != "" && user.Status != "active" {
		return nil, errors.New("account is not active")
	}

	if err := u.auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, errors.New("invalid email or password")
	}

	return user, nil
}

func (u *userService) ForgotPassword(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := u.repo.FindUserByEmail(email)
	if err != nil || user == nil {
		return errors.New("user not found")
	}

	plain, err := utils.RandomToken(32)
	if err != nil {
		return errors.New("failed to generate reset token")
	}

	hash := utils.Sha256Hex(plain)
	exp := time.Now().Add(30 * time.Minute)

	user.ResetTokenHash = hash
	user.ResetTokenExpiresAt = &exp
	if err := u.repo.SaveUser(user); err != nil {
		return errors.New("fail to save user")
	}

	if u.producer != nil {
		payload, err := json.Marshal(dto.ResetPasswordEvent{
			UserID:    user.ID,
			Email:     user.Email,
			Token:     plain,
			ExpiresAt: exp.Format(time.RFC3339),
		})
		if err == nil {
			if err := u.producer.PublishMessage([]byte(dto.EventResetPassword), payload); err != nil {
				log.Printf("publish reset event failed: %v", err)
			}
		}
	}

	return nil
}

func (u *userService) SetPassword(input dto.SetPasswordRequest) error {
	token := strings.TrimSpace(input.Token)
	newPassword := strings.TrimSpace(input.NewPassword)

	if token == "" || newPassword == "" {
		return errors.New("invalid input")
	}
	if len(newPassword) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	hash := utils.Sha256Hex(token)
	user, err := u.repo.FindUserByResetToken(hash)
	if err != nil || user == nil {
		return errors.New("invalid or expired token")
	}

	if user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		return errors.New("invalid or expired token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("fail to hash password")
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetTokenHash = ""
	user.ResetTokenExpiresAt = nil

	return u.repo.SaveUser(user)
}

func (u *userService) GetProfile(userID uint) (*domain.User, error) {
	if userID == 0 {
		return nil, errors.New("invalid user_id")
	}

	user, err := u.repo.FindUserById(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return user, nil
}

func (u *userService) GetPermissions(userID uint) (domain.UserPermissions, error) {
	if userID == 0 {
		return domain.UserPermissions{}, errors.New("invalid user_id")
	}
	return u.permRepo.GetUserPermissions(userID)
}
