package dto

type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"` // ["ADMIN","EDITOR"]
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended deleted"`
}

type GrantPermissionRequest struct {
	Resource string `json:"resource" validate:"required"`
	Action   string `json:"action" validate:"required"`
}

type RoleResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type UserRolesResponse struct {
	UserID uint           `json:"user_id"`
	Roles  []RoleResponse `json:"roles"`
}

type PermissionsResponse struct {
	UserID      uint     `json:"user_id"`
	Permissions []string `json:"permissions"` // "resource:action", for display only
	Roles       []string `json:"roles"`
}
