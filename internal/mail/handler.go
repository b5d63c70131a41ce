package mail

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/bchristie/brutons-tribunal/internal/dto"
)

// Handler routes broker events to the right email sender.
type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) HandleMessage(key, value string) error {
	switch key {
	case dto.EventInviteEmail:
		var event dto.InviteEmailEvent
		if err := json.Unmarshal([]byte(value), &event); err != nil {
			log.Printf("invalid invite payload: %s\n", value)
			return err
		}

		log.Printf("invite event received: email=%s invited_by=%s", event.Email, event.InvitedBy)
		return h.Service.SendInviteEmail(event.Email, event.InvitedBy, event.Token)

	case dto.EventResetPassword:
		var event dto.ResetPasswordEvent
		if err := json.Unmarshal([]byte(value), &event); err != nil {
			log.Printf("invalid reset payload: %s\n", value)
			return err
		}

		log.Printf("reset event received: user_id=%d email=%s", event.UserID, event.Email)
		return h.Service.SendResetEmail(event.Email, event.Token)

	default:
		return fmt.Errorf("unknown event key: %s", key)
	}
}
