package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("record already exists")
	ErrDuplicateJob    = errors.New("job with the given name already exists in queue")
)

// wrapGormError maps driver/gorm errors to the package's sentinel errors,
// leaving any other error untouched.
func wrapGormError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}

	if isDuplicateError(err) {
		return ErrDuplicateRecord
	}

	return err
}

// WARNING: THIS CHECK IS UNIQE TO SQLITE, REMEMBER TO UPDATE IT IF/WHEN
// OTHER SQL DATABASES ARE SUPPORTED
func isDuplicateError(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
