package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole controls workspace visibility of a user.
type UserRole string

const (
	UserRoleOwner     UserRole = "owner"
	UserRoleAdmin     UserRole = "admin"
	UserRoleAnnotator UserRole = "annotator"
)

// User represents an annotator or administrator.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Username  string    `json:"username" gorm:"size:64;not null;uniqueIndex:uk_username"`
	FirstName string    `json:"first_name" gorm:"size:128"`
	LastName  string    `json:"last_name,omitempty" gorm:"size:128"`
	Role      UserRole  `json:"role" gorm:"size:16;not null"`
	CreatedAt time.Time `json:"inserted_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (*User) TableName() string {
	return "users"
}

// BeforeCreate assigns a fresh id.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Workspace groups datasets and the users allowed to annotate them.
type Workspace struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"size:200;not null;uniqueIndex:uk_workspace_name"`
	CreatedAt time.Time `json:"inserted_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (*Workspace) TableName() string {
	return "workspaces"
}

// BeforeCreate assigns a fresh id.
func (w *Workspace) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// WorkspaceUser is the membership of a user in a workspace.
type WorkspaceUser struct {
	WorkspaceID uuid.UUID `json:"workspace_id" gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:char(36);primaryKey;index"`
	CreatedAt   time.Time `json:"inserted_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (*WorkspaceUser) TableName() string {
	return "workspaces_users"
}

// All lists every model for auto migration.
func All() []any {
	return []any{
		&User{}, &Workspace{}, &WorkspaceUser{},
		&Dataset{}, &Field{}, &Question{}, &MetadataProperty{}, &VectorSettings{},
		&Record{}, &Response{}, &Suggestion{}, &Vector{},
	}
}
