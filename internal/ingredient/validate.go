package ingredient

import (
	"slices"

	"github.com/go-playground/validator/v10"
)

// RegisterValidations adds the ingredient_unit and ingredient_category tags to v.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("ingredient_unit", func(fl validator.FieldLevel) bool {
		return slices.Contains(Units, Unit(fl.Field().String()))
	}); err != nil {
		return err
	}
	return v.RegisterValidation("ingredient_category", func(fl validator.FieldLevel) bool {
		return slices.Contains(Categories, Category(fl.Field().String()))
	})
}
