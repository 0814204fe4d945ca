package controllers

import (
	"civicsense-be/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the custom binding validators. Called once from
// main before the router starts.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.ValidCategories[models.IssueCategory(fl.Field().String())]
	})
}
