package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// validation errors name fields the way clients send them
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("bcryptlen", bcryptLen)
	}
}

// bcryptLen holds a password to what bcrypt accepts, counted in bytes.
func bcryptLen(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= security.MaxPasswordBytes
}

func jsonFieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return sf.Name
	default:
		return name
	}
}

// BindJSON decodes and validates the body. On failure it writes a 400 with
// per-field details and returns false.
func BindJSON(ctx *gin.Context, out any) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondError(ctx, bindError(err))
		return false
	}
	return true
}

func bindError(err error) *apperr.Error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]FieldError, 0, len(validationErrs))

		for _, fe := range validationErrs {
			fields = append(fields, FieldError{
				Field:   fieldPath(fe),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validationMessage(fe.Tag(), fe.Param(), fe.Kind()),
			})
		}
		return apperr.Validation(apperr.MsgValidation, fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperr.Validation(apperr.MsgValidation, []FieldError{{
			Field:   strings.TrimSpace(typeErr.Field),
			Rule:    "type",
			Message: "debe ser de tipo " + typeErr.Type.String(),
		}})
	}

	// bad syntax, empty body, oversized body: all just invalid JSON to the client
	return apperr.Validation(apperr.MsgInvalidJSON, nil)
}

// fieldPath drops the root struct name: "RegisterRequest.email" -> "email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok && rest != "" {
		return rest
	}
	return fe.Field()
}

func validationMessage(rule, param string, kind reflect.Kind) string {
	switch rule {
	case "required", "notblank":
		return "es requerido"
	case "bcryptlen":
		return fmt.Sprintf("debe tener como máximo %d bytes", security.MaxPasswordBytes)
	case "email":
		return "debe ser un email válido"
	case "url":
		return "debe ser una URL válida"
	case "min":
		if kind == reflect.String {
			return "debe tener al menos " + param + " caracteres"
		}
		return "debe ser mayor o igual a " + param
	case "max":
		if kind == reflect.String {
			return "debe tener como máximo " + param + " caracteres"
		}
		return "debe ser menor o igual a " + param
	case "gt":
		return "debe ser mayor que " + param
	case "gte":
		return "debe ser mayor o igual a " + param
	case "lte":
		return "debe ser menor o igual a " + param
	case "oneof":
		return "debe ser uno de " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("no cumple la regla %s (%s)", rule, param)
		}
		return "no cumple la regla " + rule
	}
}
