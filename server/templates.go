package server

import (
	"embed"
	"html/template"

	"github.com/Daskott/agenda/server/contactbook"
	"github.com/Daskott/agenda/server/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

var genders = []string{models.MALE_GENDER, models.FEMALE_GENDER, models.OTHER_GENDER}

type pageData struct {
	Title     string
	User      *models.User
	Contacts  []models.Contact
	ContactID uint
	Form      contactbook.ContactFields
	Genders   []string
	Errors    map[string]string
	Error     string
	Username  string
	Next      string
}
