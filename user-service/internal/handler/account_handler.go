package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/useradmin/userapi/shared/cqrs"
	"github.com/useradmin/userapi/shared/middleware"
	"github.com/useradmin/userapi/shared/models"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	Create(context.Context, cqrs.CreateAccountCommand) (*models.Account, error)
	UpdateDetails(context.Context, cqrs.UpdateDetailsCommand) (*models.Account, error)
	ChangePassword(context.Context, cqrs.ChangePasswordCommand) error
	UpdateLogin(context.Context, cqrs.UpdateLoginCommand) (*models.Account, error)
	Revoke(context.Context, cqrs.RevokeAccountCommand) error
	Restore(context.Context, cqrs.RestoreAccountCommand) (*models.Account, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetByLogin(context.Context, cqrs.GetAccountQuery) (*models.AccountView, error)
	GetCurrentUser(context.Context, cqrs.GetCurrentAccountQuery) (*models.AccountView, error)
	GetOlderThan(context.Context, cqrs.ListOlderThanQuery) ([]models.Account, error)
	ListActive(context.Context, cqrs.ListActiveQuery) ([]models.Account, error)
}

// AccountHandler routes requests to the command or query service as appropriate.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

type CreateAccountRequest struct {
	Login    string        `json:"login" validate:"required,login"`
	Password string        `json:"password" validate:"required"`
	Name     string        `json:"name" validate:"notblank"`
	Gender   models.Gender `json:"gender" validate:"gender"`
	Birthday *time.Time    `json:"birthday"`
	Admin    bool          `json:"admin"`
}

type UpdateDetailsRequest struct {
	Name     string        `json:"name" validate:"notblank"`
	Gender   models.Gender `json:"gender" validate:"gender"`
	Birthday *time.Time    `json:"birthday"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword" validate:"required,login"`
}

type UpdateLoginRequest struct {
	NewLogin string `json:"newLogin" validate:"required,login"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

// RegisterRoutes mounts the account endpoints on rg. rg must already run
// the authentication middleware; adminOnly guards the administrator routes.
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	rg.GET("/me", h.GetCurrentUser)
	rg.PUT("/:login/details", h.UpdateDetails)
	rg.PUT("/:login/password", h.ChangePassword)
	rg.PUT("/:login/login", h.UpdateLogin)

	admin := rg.Group("", adminOnly)
	admin.POST("", h.Create)
	admin.GET("/active", h.ListActive)
	admin.GET("/older-than/:age", h.GetOlderThan)
	admin.GET("/:login", h.GetByLogin)
	admin.DELETE("/:login", h.Revoke)
	admin.POST("/:login/restore", h.Restore)
}

func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.commands.Create(c.Request.Context(), cqrs.CreateAccountCommand{
		Login:    req.Login,
		Password: req.Password,
		Name:     req.Name,
		Gender:   req.Gender,
		Birthday: req.Birthday,
		Admin:    req.Admin,
		Caller:   middleware.GetCaller(c),
	})
	if err != nil {
		middleware.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) UpdateDetails(c *gin.Context) {
	var req UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.commands.UpdateDetails(c.Request.Context(), cqrs.UpdateDetailsCommand{
		Login:    c.Param("login"),
		Name:     req.Name,
		Gender:   req.Gender,
		Birthday: req.Birthday,
		Caller:   middleware.GetCaller(c),
	})
	if err != nil {
		middleware.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	err := h.commands.ChangePassword(c.Request.Context(), cqrs.ChangePasswordCommand{
		Login:       c.Param("login"),
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
		Caller:      middleware.GetCaller(c),
	})
	if err != nil {
		middleware.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *AccountHandler) UpdateLogin(c *gin.Context) {
	var req UpdateLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.commands.UpdateLogin(c.Request.Context(), cqrs.UpdateLoginCommand{
		Login:    c.Param("login"),
		NewLogin: req.NewLogin,
		Caller:   middleware.GetCaller(c),
	})
	if err != nil {
		middleware.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) GetByLogin(c *gin.Context) {
	view, err := h.queries.GetByLogin(c.Request.Context(), cqrs.GetAccountQuery{
		Login:  c.Param("login"),
		Caller: middleware.GetCaller(c),
	})
	if err != nil {
		middleware.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) GetCurrentUser(c *gin.Context) {
	view, err := h.queries.GetCurrentUser(c.Request.Context(), cqrs.GetCurrentAccountQuery{
		Caller: middleware.GetCaller(c),
	})
	if err != nil {
		middleware.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) GetOlderThan(c *gin.Context) {
	age, err := strconv.Atoi(c.Param("age"))
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Age must be a whole number")
		return
	}

	accounts, err := h.queries.GetOlderThan(c.Request.Context(), cqrs.ListOlderThanQuery{
		Age:    age,
		Caller: middleware.GetCaller(c),
	})
	if err != nil {
		middleware.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// Revoke soft-deletes by default; ?softDelete=false removes the account.
func (h *AccountHandler) Revoke(c *gin.Context) {
	soft := true
	if raw, ok := c.GetQuery("softDelete"); ok {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadRequest, "softDelete must be true or false")
			return
		}
		soft = parsed
	}

	err := h.commands.Revoke(c.Request.Context(), cqrs.RevokeAccountCommand{
		Login:  c.Param("login"),
		Hard:   !soft,
		Caller: middleware.GetCaller(c),
	})
	if err != nil {
		middleware.RespondWithServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) Restore(c *gin.Context) {
	account, err := h.commands.Restore(c.Request.Context(), cqrs.RestoreAccountCommand{
		Login:  c.Param("login"),
		Caller: middleware.GetCaller(c),
	})
	if err != nil {
		middleware.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) ListActive(c *gin.Context) {
	accounts, err := h.queries.ListActive(c.Request.Context(), cqrs.ListActiveQuery{
		Caller: middleware.GetCaller(c),
	})
	if err != nil {
		middleware.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, accounts)
}
