package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kart-io/labelhub/internal/labelhub/biz"
	"github.com/kart-io/labelhub/internal/pkg/httputils"
	"github.com/kart-io/labelhub/pkg/utils/response"
)

// UserHandler handles users and workspaces.
type UserHandler struct {
	svc *biz.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *biz.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create handles user creation.
func (h *UserHandler) Create(c *gin.Context) {
	var req biz.CreateUserRequest
	if err := bind(c, &req); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	user, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, response.Created(user))
}

// Get returns one user.
func (h *UserHandler) Get(c *gin.Context) {
	userID, err := uuidParam(c, "id")
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	user, err := h.svc.Get(c.Request.Context(), userID)
	httputils.WriteResponse(c, err, user)
}

// CreateWorkspace handles workspace creation.
func (h *UserHandler) CreateWorkspace(c *gin.Context) {
	var req biz.CreateWorkspaceRequest
	if err := bind(c, &req); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	ws, err := h.svc.CreateWorkspace(c.Request.Context(), &req)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, response.Created(ws))
}

// AddWorkspaceUserRequest names the user joining a workspace.
type AddWorkspaceUserRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// AddWorkspaceUser adds a user to a workspace.
func (h *UserHandler) AddWorkspaceUser(c *gin.Context) {
	workspaceID, err := uuidParam(c, "id")
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	var req AddWorkspaceUserRequest
	if err := bind(c, &req); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	if err := h.svc.AddWorkspaceUser(c.Request.Context(), workspaceID, req.UserID); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, response.Created(gin.H{
		"workspace_id": workspaceID,
		"user_id":      req.UserID,
	}))
}
