package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nutrio/subscription-service/internal/domain"
)

// Регистрация правила "plan" для binding-тегов: значение должно быть
// идентификатором известного тарифного плана
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
			_, err := domain.PlanByID(domain.PlanID(fl.Field().String()))
			return err == nil
		})
	}
}
