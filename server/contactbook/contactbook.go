package contactbook

import (
	"context"
	"reflect"
	"strings"

	"github.com/Daskott/agenda/server/auth"
	"github.com/Daskott/agenda/server/models"
	"github.com/go-playground/validator"
	"github.com/pkg/errors"
)

// Credentials are the username & password submitted on registration or login
type Credentials struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,password"`
}

// ContactFields holds the user supplied values of a contact
type ContactFields struct {
	FirstNames string `json:"first_names" validate:"required,max=100"`
	LastNames  string `json:"last_names" validate:"required,max=100"`
	Address    string `json:"address" validate:"max=200"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Email      string `json:"email" validate:"omitempty,email,max=100"`
	Gender     string `json:"gender" validate:"omitempty,oneof=Hombre Mujer Otro"`
}

func (fields *ContactFields) normalize() {
	fields.FirstNames = strings.TrimSpace(fields.FirstNames)
	fields.LastNames = strings.TrimSpace(fields.LastNames)
	fields.Address = strings.TrimSpace(fields.Address)
	fields.Phone = strings.TrimSpace(fields.Phone)
	fields.Email = strings.TrimSpace(fields.Email)
	fields.Gender = strings.TrimSpace(fields.Gender)
}

func (fields ContactFields) contact(ownerID uint) *models.Contact {
	return &models.Contact{
		FirstNames: fields.FirstNames,
		LastNames:  fields.LastNames,
		Address:    fields.Address,
		Phone:      fields.Phone,
		Email:      fields.Email,
		Gender:     fields.Gender,
		UserID:     ownerID,
	}
}

// FieldsFromContact returns the editable values of 'contact'
func FieldsFromContact(contact *models.Contact) ContactFields {
	return ContactFields{
		FirstNames: contact.FirstNames,
		LastNames:  contact.LastNames,
		Address:    contact.Address,
		Phone:      contact.Phone,
		Email:      contact.Email,
		Gender:     contact.Gender,
	}
}

// Service implements registration, authentication & the per-user contact book.
// Every contact operation is scoped to the user passed in.
type Service struct {
	users    models.UserRepository
	contacts models.ContactRepository
	validate *validator.Validate
}

func NewService(users models.UserRepository, contacts models.ContactRepository) (*Service, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)

	if err := RegisterValidators(validate); err != nil {
		return nil, err
	}

	return &Service{users: users, contacts: contacts, validate: validate}, nil
}

// RegisterValidators adds the custom validation tags used by the service
func RegisterValidators(validate *validator.Validate) error {
	// max counts runes, bcrypt counts bytes
	return validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		return len(password) > 0 && len(password) <= auth.MAX_PASSWORD_BYTES
	})
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func (s *Service) Register(ctx context.Context, credentials Credentials) (*models.User, error) {
	credentials.Username = strings.TrimSpace(credentials.Username)
	if err := s.validate.Struct(credentials); err != nil {
		return nil, newValidationError(err)
	}

	exists, err := s.users.UsernameExists(ctx, credentials.Username)
	if err != nil {
		return nil, err
	}

	if exists {
		return nil, ErrConflict
	}

	passwordHash, err := auth.HashPassword(credentials.Password)
	if err != nil {
		return nil, errors.Wrap(err, "unable to hash password")
	}

	user := &models.User{Username: credentials.Username, Password: passwordHash}
	err = s.users.Insert(ctx, user)
	if errors.Is(err, models.ErrDuplicateRecord) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate returns the user matching 'credentials'. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, credentials Credentials) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(credentials.Username))
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPasswordHash(credentials.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	user.Password = ""
	return user, nil
}

// User returns the user with 'id' or ErrNotFound
func (s *Service) User(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) List(ctx context.Context, currentUser *models.User) ([]models.Contact, error) {
	return s.contacts.ListByOwner(ctx, currentUser.ID)
}

// Find returns the contact with 'id' if it is owned by 'currentUser'
func (s *Service) Find(ctx context.Context, currentUser *models.User, id uint) (*models.Contact, error) {
	contact, err := s.contacts.Find(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if contact.UserID != currentUser.ID {
		return nil, ErrNotFound
	}

	return contact, nil
}

func (s *Service) Add(ctx context.Context, currentUser *models.User, fields ContactFields) (*models.Contact, error) {
	fields.normalize()
	if err := s.validate.Struct(fields); err != nil {
		return nil, newValidationError(err)
	}

	contact := fields.contact(currentUser.ID)
	if err := s.contacts.Insert(ctx, contact); err != nil {
		return nil, err
	}

	return contact, nil
}

func (s *Service) Update(ctx context.Context, currentUser *models.User, id uint, fields ContactFields) (*models.Contact, error) {
	if _, err := s.Find(ctx, currentUser, id); err != nil {
		return nil, err
	}

	fields.normalize()
	if err := s.validate.Struct(fields); err != nil {
		return nil, newValidationError(err)
	}

	contact := fields.contact(currentUser.ID)
	contact.ID = id
	err := s.contacts.Update(ctx, contact)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.Find(ctx, currentUser, id)
}

func (s *Service) Delete(ctx context.Context, currentUser *models.User, id uint) error {
	if _, err := s.Find(ctx, currentUser, id); err != nil {
		return err
	}

	err := s.contacts.Delete(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return ErrNotFound
	}

	return err
}
