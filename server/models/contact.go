package models

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	MALE_GENDER   = "Hombre"
	FEMALE_GENDER = "Mujer"
	OTHER_GENDER  = "Otro"
)

var updatableContactFields = []string{
	"first_names",
	"last_names",
	"address",
	"phone",
	"email",
	"gender",
}

type Contact struct {
	BaseModel
	FirstNames string `json:"first_names" gorm:"size:100;not null"`
	LastNames  string `json:"last_names" gorm:"size:100;not null"`
	Address    string `json:"address" gorm:"size:200"`
	Phone      string `json:"phone" gorm:"size:20;not null"`
	Email      string `json:"email" gorm:"size:100"`
	Gender     string `json:"gender" gorm:"size:10"`
	UserID     uint   `json:"user_id" gorm:"not null;index"`
}

type ContactRepository interface {
	Find(ctx context.Context, id uint) (*Contact, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]Contact, error)
	Insert(ctx context.Context, contact *Contact) error
	Update(ctx context.Context, contact *Contact) error
	Delete(ctx context.Context, id uint) error
}

type GormContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

func (r *GormContactRepository) Find(ctx context.Context, id uint) (*Contact, error) {
	contact := Contact{}
	err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error
	if err != nil {
		return nil, errors.Wrapf(wrapGormError(err), "find contact %v", id)
	}

	return &contact, nil
}

// ListByOwner returns every contact owned by 'ownerID' in storage order
func (r *GormContactRepository) ListByOwner(ctx context.Context, ownerID uint) ([]Contact, error) {
	contacts := []Contact{}
	err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("id asc").Find(&contacts).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list contacts for user %v", ownerID)
	}

	return contacts, nil
}

func (r *GormContactRepository) Insert(ctx context.Context, contact *Contact) error {
	err := r.db.WithContext(ctx).Create(contact).Error
	if err != nil {
		return errors.Wrap(wrapGormError(err), "contact creation failed")
	}

	return nil
}

// Update overwrites the mutable fields of the contact with id 'contact.ID'.
// The owner is never changed.
func (r *GormContactRepository) Update(ctx context.Context, contact *Contact) error {
	res := r.db.WithContext(ctx).Model(&Contact{}).
		Where("id = ?", contact.ID).
		Select(updatableContactFields).
		Updates(contact)

	if res.Error != nil {
		return errors.Wrapf(wrapGormError(res.Error), "update contact %v", contact.ID)
	}

	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrRecordNotFound, "update contact %v", contact.ID)
	}

	return nil
}

func (r *GormContactRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Contact{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete contact %v", id)
	}

	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrRecordNotFound, "delete contact %v", id)
	}

	return nil
}
