package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/errors"
)

// UserStore defines the user storage interface.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	// VisibleIDs returns the subset of ids naming users that can annotate in
	// the workspace: owners everywhere, everyone else through membership.
	VisibleIDs(ctx context.Context, workspaceID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

// WorkspaceStore defines the workspace storage interface.
type WorkspaceStore interface {
	Create(ctx context.Context, workspace *model.Workspace) error
	Get(ctx context.Context, id uuid.UUID) (*model.Workspace, error)
	AddUser(ctx context.Context, workspaceID, userID uuid.UUID) error
}

type users struct {
	db *gorm.DB
}

func newUsers(db *gorm.DB) *users {
	return &users{db}
}

// Create creates a new user.
func (u *users) Create(ctx context.Context, user *model.User) error {
	return create(ctx, u.db, user, "username already exists")
}

// Get retrieves a user by id.
func (u *users) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := u.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, errors.ErrUserNotFound)
	}
	return &user, nil
}

func (u *users) VisibleIDs(ctx context.Context, workspaceID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	visible := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return visible, nil
	}

	var found []uuid.UUID
	members := u.db.Model(&model.WorkspaceUser{}).Select("user_id").Where("workspace_id = ?", workspaceID)
	err := u.db.WithContext(ctx).Model(&model.User{}).
		Where("id IN ?", ids).
		Where(u.db.Where("role = ?", model.UserRoleOwner).Or("id IN (?)", members)).
		Pluck("id", &found).Error
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}

	for _, id := range found {
		visible[id] = true
	}
	return visible, nil
}

type workspaces struct {
	db *gorm.DB
}

func newWorkspaces(db *gorm.DB) *workspaces {
	return &workspaces{db}
}

// Create creates a new workspace.
func (w *workspaces) Create(ctx context.Context, workspace *model.Workspace) error {
	return create(ctx, w.db, workspace, "workspace name already exists")
}

// Get retrieves a workspace by id.
func (w *workspaces) Get(ctx context.Context, id uuid.UUID) (*model.Workspace, error) {
	var workspace model.Workspace
	if err := w.db.WithContext(ctx).Where("id = ?", id).First(&workspace).Error; err != nil {
		return nil, notFound(err, errors.ErrWorkspaceNotFound)
	}
	return &workspace, nil
}

// AddUser adds a membership.
func (w *workspaces) AddUser(ctx context.Context, workspaceID, userID uuid.UUID) error {
	return create(ctx, w.db, &model.WorkspaceUser{WorkspaceID: workspaceID, UserID: userID},
		"user already belongs to workspace")
}
