// Package types provides type definitions for structured data used throughout the portfolio.
package types

import (
	"net/url"

	"github.com/go-playground/validator/v10"
)

// ProfileDocument is the static document describing the person shown on the
// portfolio page. It is loaded once and never mutated afterwards.
type ProfileDocument struct {
	About          About            `json:"about" validate:"required"`
	Skills         []string         `json:"skills" validate:"required,dive,required"`
	Projects       []Project        `json:"projects" validate:"required,dive"`
	WorkExperience []WorkExperience `json:"workExperience" validate:"required,dive"`
}

// About holds the headline information rendered in the nav bar and About section.
type About struct {
	Name        string `json:"name" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Resume      string `json:"resume" validate:"required,uri"`
}

// Project is a single project card.
type Project struct {
	Title  string `json:"title" validate:"required"`
	Desc   string `json:"desc"`
	GitHub string `json:"github" validate:"required,weblink"`
}

// WorkExperience is a single entry of the work history.
type WorkExperience struct {
	Company string   `json:"company" validate:"required"`
	Role    string   `json:"role" validate:"required"`
	Details []string `json:"details" validate:"required,dive,required"`
}

var profileValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("weblink", isWebLink); err != nil {
		panic(err)
	}
	return v
}

// isWebLink accepts absolute http(s) URLs made only of characters that
// html/template leaves untouched in an href, so the rendered link equals
// the document's value byte for byte.
func isWebLink(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHrefSafe(s[i]) {
			return false
		}
	}
	return true
}

func isHrefSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', '%',
		'!', '#', '$', '&', '*', '+', ',', '/', ':', ';', '=', '?', '@', '[', ']':
		return true
	}
	return false
}

// Validate validates the ProfileDocument using the validator.
func (p *ProfileDocument) Validate() error {
	return profileValidator.Struct(p)
}
