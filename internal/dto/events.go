package dto

// Kafka event keys consumed by the mailer.
const (
	EventInviteEmail   = "user.invite"
	EventResetPassword = "user.reset_password"
)

type InviteEmailEvent struct {
	Email     string `json:"email"`
	InvitedBy string `json:"invited_by"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type ResetPasswordEvent struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}
