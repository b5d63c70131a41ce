package handlers

import (
	"github.com/bchristie/brutons-tribunal/internal/dto"
	"github.com/bchristie/brutons-tribunal/internal/helper"
	"github.com/bchristie/brutons-tribunal/internal/helper/utils"
	"github.com/bchristie/brutons-tribunal/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	svc  services.UserService
	auth helper.Auth
}

func NewUserHandler(svc services.UserService, auth helper.Auth) *UserHandler {
	return &UserHandler{svc: svc, auth: auth}
}

func (h *UserHandler) SetupRoutes(app *fiber.App, authMW fiber.Handler) {
	api := app.Group("/api")
	user := api.Group("/user")

	// Auth
	user.Post("/register", h.Register)
	user.Post("/login", h.Login)
	user.Post("/forgot-password", h.ForgotPassword)
	user.Post("/reset-password", h.SetPassword)

	// Profile (authenticated)
	user.Get("/me", authMW, h.Me)
	user.Get("/me/permissions", authMW, h.MyPermissions)
}

func (h *UserHandler) Register(ctx *fiber.Ctx) error {
	var requestBody dto.RegisterRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}
	if err := utils.ValidateStruct(requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	if err := h.svc.Register(requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, "user registered successfully")
}

func (h *UserHandler) Login(ctx *fiber.Ctx) error {
	var requestBody dto.UserLogin
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}

	user, err := h.svc.Login(requestBody)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "invalid email or password")
	}

	token, err := h.auth.GenerateToken(int(user.ID), user.Email)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "could not generate token")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.LoginResponse{Token: token})
}

func (h *UserHandler) ForgotPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ForgotPasswordRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide a valid email")
	}
	if err := utils.ValidateStruct(requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide a valid email")
	}

	// always report success so the endpoint cannot be used to probe accounts
	_ = h.svc.ForgotPassword(requestBody.Email)

	return utils.ResponseSuccess(ctx, fiber.StatusOK, "password reset link sent")
}

func (h *UserHandler) SetPassword(ctx *fiber.Ctx) error {
	var requestBody dto.SetPasswordRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid input")
	}
	if err := utils.ValidateStruct(requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid input")
	}

	if err := h.svc.SetPassword(requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "password updated")
}

func (h *UserHandler) Me(ctx *fiber.Ctx) error {
	userID, ok := ctx.Locals("userID").(uint)
	if !ok || userID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.svc.GetProfile(userID)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusNotFound, "user not found")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, user)
}

func (h *UserHandler) MyPermissions(ctx *fiber.Ctx) error {
	userID, ok := ctx.Locals("userID").(uint)
	if !ok || userID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	up, err := h.svc.GetPermissions(userID)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
	}

	resp := dto.PermissionsResponse{
		UserID:      userID,
		Permissions: make([]string, 0, len(up.Permissions)),
		Roles:       up.Roles,
	}
	for ref := range up.Permissions {
		resp.Permissions = append(resp.Permissions, ref.Resource+":"+ref.Action)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}
