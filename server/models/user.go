package models

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var allUserFieldsExceptPassword = []string{"id", "username", "created_at", "updated_at"}

type User struct {
	BaseModel
	Username string    `json:"username" gorm:"size:150;not null;uniqueIndex"`
	Password string    `json:"-" gorm:"size:150;not null"`
	Contacts []Contact `json:"contacts,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*User, error)
	// FindByUsername returns the user including its password hash
	FindByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, user *User) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*User, error) {
	user := User{}
	err := r.db.WithContext(ctx).Select(allUserFieldsExceptPassword).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, errors.Wrapf(wrapGormError(err), "find user %v", id)
	}

	return &user, nil
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	user := User{}
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return nil, errors.Wrapf(wrapGormError(err), "find user %q", username)
	}

	return &user, nil
}

func (r *GormUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check username")
	}

	return count > 0, nil
}

// Insert expects 'user.Password' to already hold a password hash
func (r *GormUserRepository) Insert(ctx context.Context, user *User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		return errors.Wrap(wrapGormError(err), "user creation failed")
	}

	return nil
}
