package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("entryname", entryName)
	_ = validate.RegisterValidation("relpath", relPath)
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = e.Tag()
	}
	return out
}

// entryName accepts a single path segment once surrounding spaces are trimmed.
func entryName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	if name == "" {
		return false
	}
	if name == "." || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// relPath rejects absolute forms early; the engine resolver re-checks everything.
func relPath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return !strings.HasPrefix(p, "/") && !strings.HasPrefix(p, `\`) && !strings.ContainsRune(p, 0)
}
