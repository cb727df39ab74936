// Package validation applies struct-tag validation and HTML
// sanitization to inbound API requests, replacing a sequence of
// if req.X <= 0 { http.Error... } checks with declarative struct tags;
// bluemonday still guards free-text fields a validator tag can't
// constrain.
package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var validate = validator.New()

// Struct validates req against its `validate:"..."` tags.
func Struct(req any) error {
	return validate.Struct(req)
}

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips any HTML from free-text fields (market titles,
// descriptions, reasoning) before they reach the store.
func Sanitize(s string) string {
	return sanitizer.Sanitize(s)
}
