package biz

import (
	"context"

	"github.com/google/uuid"

	"github.com/kart-io/labelhub/internal/labelhub/store"
	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/errors"
)

// CreateUserRequest describes a new user.
type CreateUserRequest struct {
	Username  string         `json:"username" validate:"required,username"`
	FirstName string         `json:"first_name" validate:"required,max=128,trimmed"`
	LastName  string         `json:"last_name" validate:"max=128,trimmed"`
	Role      model.UserRole `json:"role" validate:"required,oneof=owner admin annotator"`
}

// CreateWorkspaceRequest describes a new workspace.
type CreateWorkspaceRequest struct {
	Name string `json:"name" validate:"required,resourcename"`
}

// UserService handles users and workspace membership.
type UserService struct {
	store store.Factory
}

// NewUserService creates a new UserService.
func NewUserService(store store.Factory) *UserService {
	return &UserService{store: store}
}

// Create creates a user.
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	user := &model.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get retrieves a user.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.store.Users().Get(ctx, id)
}

// CreateWorkspace creates a workspace.
func (s *UserService) CreateWorkspace(ctx context.Context, req *CreateWorkspaceRequest) (*model.Workspace, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	workspace := &model.Workspace{Name: req.Name}
	if err := s.store.Workspaces().Create(ctx, workspace); err != nil {
		return nil, err
	}
	return workspace, nil
}

// AddWorkspaceUser makes a user a member of a workspace.
func (s *UserService) AddWorkspaceUser(ctx context.Context, workspaceID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return errors.ErrInvalidParam.WithMessage("user_id is required")
	}
	return s.store.TX(ctx, func(tx store.Factory) error {
		if _, err := tx.Workspaces().Get(ctx, workspaceID); err != nil {
			return err
		}
		if _, err := tx.Users().Get(ctx, userID); err != nil {
			return err
		}
		return tx.Workspaces().AddUser(ctx, workspaceID, userID)
	})
}
