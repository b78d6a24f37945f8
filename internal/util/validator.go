package util

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var featureTagPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email inválido")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}

// ValidateFeatureTag aceita apenas identificadores curtos em minúsculas (ex.: course-cover).
func ValidateFeatureTag(tag string) error {
	if !featureTagPattern.MatchString(tag) {
		return errors.New("feature inválida")
	}
	return nil
}
