package handlers

import (
	"strconv"

	"github.com/bchristie/brutons-tribunal/internal/dto"
	"github.com/bchristie/brutons-tribunal/internal/helper/utils"
	"github.com/bchristie/brutons-tribunal/internal/repository"
	"github.com/bchristie/brutons-tribunal/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	svc       services.AdminService
	auditRepo repository.AuditLogRepository
}

func NewAdminHandler(svc services.AdminService, auditRepo repository.AuditLogRepository) *AdminHandler {
	return &AdminHandler{svc: svc, auditRepo: auditRepo}
}

// SetupRoutes registers the admin surface. Every route here runs behind the
// auth middleware and the ADMIN role gate, in that order.
func (h *AdminHandler) SetupRoutes(app *fiber.App, authMW, adminMW fiber.Handler) {
	admin := app.Group("/api/admin", authMW, adminMW)

	admin.Post("/invite", h.Invite)

	admin.Get("/roles", h.ListRoles)
	admin.Get("/users/:userID/roles", h.GetUserRoles)
	admin.Put("/users/:userID/roles", h.SetRoles)
	admin.Patch("/users/:userID/status", h.SetStatus)
	admin.Post("/roles/:roleID/permissions", h.GrantPermission)
	admin.Delete("/roles/:roleID/permissions/:permissionID", h.RevokePermission)

	admin.Get("/audit-logs", h.ListAuditLogs)
	admin.Get("/audit-logs/:id", h.GetAuditLog)
}

func (h *AdminHandler) Invite(ctx *fiber.Ctx) error {
	adminID, ok := ctx.Locals("userID").(uint)
	if !ok || adminID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.InviteRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide a valid email")
	}
	if err := utils.ValidateStruct(requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide a valid email")
	}

	if err := h.svc.InviteUser(adminID, requestBody.Email, ctx.IP()); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "invitation sent")
}

func (h *AdminHandler) ListRoles(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	roles, err := h.svc.ListRoles(limit, offset)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, roles)
}

func (h *AdminHandler) GetUserRoles(ctx *fiber.Ctx) error {
	userID, err := ctx.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user id")
	}

	resp, err := h.svc.GetUserRoles(uint(userID))
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *AdminHandler) SetRoles(ctx *fiber.Ctx) error {
	adminID, _ := ctx.Locals("userID").(uint)

	userID, err := ctx.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user id")
	}

	var requestBody dto.SetRolesRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "roles are required")
	}
	if err := utils.ValidateStruct(requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "roles are required")
	}

	if err := h.svc.SetRoles(adminID, uint(userID), requestBody, ctx.IP()); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "roles updated")
}

func (h *AdminHandler) SetStatus(ctx *fiber.Ctx) error {
	adminID, _ := ctx.Locals("userID").(uint)

	userID, err := ctx.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user id")
	}

	var requestBody dto.SetStatusRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid status")
	}
	if err := utils.ValidateStruct(requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid status")
	}

	if err := h.svc.SetStatus(adminID, uint(userID), requestBody.Status, ctx.IP()); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "status updated")
}

func (h *AdminHandler) GrantPermission(ctx *fiber.Ctx) error {
	adminID, _ := ctx.Locals("userID").(uint)

	roleID, err := ctx.ParamsInt("roleID")
	if err != nil || roleID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid role id")
	}

	var requestBody dto.GrantPermissionRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "resource and action are required")
	}
	if err := utils.ValidateStruct(requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "resource and action are required")
	}

	if err := h.svc.GrantPermission(adminID, uint(roleID), requestBody, ctx.IP()); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "permission granted")
}

func (h *AdminHandler) RevokePermission(ctx *fiber.Ctx) error {
	adminID, _ := ctx.Locals("userID").(uint)

	roleID, err := ctx.ParamsInt("roleID")
	if err != nil || roleID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid role id")
	}
	permissionID, err := ctx.ParamsInt("permissionID")
	if err != nil || permissionID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid permission id")
	}

	if err := h.svc.RevokePermission(adminID, uint(roleID), uint(permissionID), ctx.IP()); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "permission revoked")
}

func (h *AdminHandler) ListAuditLogs(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)

	if action := ctx.Query("action"); action != "" {
		entries, err := h.auditRepo.FindByAction(action, limit)
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
		}
		return utils.ResponseSuccess(ctx, fiber.StatusOK, entries)
	}

	if raw := ctx.Query("user_id"); raw != "" {
		userID, err := strconv.Atoi(raw)
		if err != nil || userID <= 0 {
			return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user_id")
		}
		entries, err := h.auditRepo.FindByUserID(uint(userID), limit)
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
		}
		return utils.ResponseSuccess(ctx, fiber.StatusOK, entries)
	}

	if raw := ctx.Query("performed_by"); raw != "" {
		performedBy, err := strconv.Atoi(raw)
		if err != nil || performedBy <= 0 {
			return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid performed_by")
		}
		entries, err := h.auditRepo.FindByPerformedByID(uint(performedBy), limit)
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
		}
		return utils.ResponseSuccess(ctx, fiber.StatusOK, entries)
	}

	entries, err := h.auditRepo.FindRecentWithUsers(limit)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, entries)
}

func (h *AdminHandler) GetAuditLog(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid id")
	}

	entry, err := h.auditRepo.FindByIDWithUsers(uint(id))
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
	}
	if entry == nil {
		return utils.ResponseError(ctx, fiber.StatusNotFound, "audit log not found")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, entry)
}
