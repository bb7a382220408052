package handlers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/EQAR/eqar-db/internal/workflow"
)

// levelFields maps assessment fields to the prefix of their flat error key.
var levelFields = map[string]string{
	"panel":       "panel",
	"rapporteurs": "rapp",
	"rc":          "rc",
	"inherit":     "inherit",
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkPayload runs the struct tags of payload and reports violations the
// same way the workflow engine does.
func (h *Handler) checkPayload(payload interface{}) workflow.FieldErrors {
	err := h.validate.Struct(payload)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return workflow.FieldErrors{workflow.NonFieldErrors: err.Error()}
	}
	errs := workflow.FieldErrors{}
	for _, fe := range verrs {
		errs[fieldKey(fe)] = message(fe)
	}
	return errs
}

// fieldKey turns "Application.standards[2.1].panel" into "panel_2_1".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	start := strings.Index(ns, "standards[")
	if start < 0 {
		return fe.Field()
	}
	rest := ns[start+len("standards["):]
	end := strings.Index(rest, "]")
	if end < 0 {
		return fe.Field()
	}
	code := strings.ReplaceAll(rest[:end], ".", "_")
	prefix, ok := levelFields[fe.Field()]
	if !ok {
		prefix = fe.Field()
	}
	return prefix + "_" + code
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "oneof":
		return fmt.Sprintf("Select a valid choice. %v is not one of the available choices.", fe.Value())
	case "max":
		return "Ensure this field has at most " + fe.Param() + " characters."
	case "gt":
		return "Ensure this value is greater than " + fe.Param() + "."
	}
	return "Invalid value."
}
