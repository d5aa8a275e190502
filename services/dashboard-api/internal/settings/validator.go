// Package settings validates and persists user preference bundles.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"

	"github.com/sumails/sumails/internal/apperr"
	"github.com/sumails/sumails/internal/models"
)

var preferredTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type fieldKind int

const (
	kindBool fieldKind = iota
	kindString
	kindNullableString
	kindObject
)

type field struct {
	name     string
	kind     fieldKind
	optional bool // may be omitted from a full payload
	fields   []field
}

var schema = []field{
	{name: "notifications", kind: kindObject, fields: []field{
		{name: "productUpdates", kind: kindBool},
		{name: "marketingEmails", kind: kindBool},
	}},
	{name: "summaryChannels", kind: kindObject, fields: []field{
		{name: "email", kind: kindBool},
		{name: "whatsapp", kind: kindBool},
	}},
	{name: "preferredTime", kind: kindString},
	{name: "timezone", kind: kindString},
	{name: "language", kind: kindString},
	{name: "fullName", kind: kindNullableString, optional: true},
	{name: "phoneNumber", kind: kindNullableString, optional: true},
	{name: "whatsappNumber", kind: kindNullableString, optional: true},
}

var ruleMessages = map[string]string{
	"hhmm":     "must be a 24-hour time in HH:MM format",
	"timezone": "must be a non-empty IANA timezone",
	"oneof":    "must be one of: friendly, professional, concise",
}

// Validator checks settings payloads decoded from JSON into generic maps.
// It has no side effects and is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return preferredTimeRegex.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Validate accepts a complete settings payload.
func (v *Validator) Validate(raw map[string]any) (*models.SettingsFormData, error) {
	patch, err := v.check(raw, true)
	if err != nil {
		return nil, err
	}
	form := patch.Apply(models.SettingsFormData{})
	return &form, nil
}

// ValidatePartial accepts any subset of the settings keys. Keys that are
// absent stay unset in the returned patch. A supplied nested object must be complete.
func (v *Validator) ValidatePartial(raw map[string]any) (*models.SettingsPatch, error) {
	return v.check(raw, false)
}

func (v *Validator) check(raw map[string]any, full bool) (*models.SettingsPatch, error) {
	errs := &apperr.ValidationError{}
	checkShape(raw, schema, "", full, errs)
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, apperr.Invalid("body", "must be a JSON object")
	}
	var patch models.SettingsPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		return nil, apperr.Invalid("body", err.Error())
	}

	if err := v.validate.Struct(patch); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate settings: %w", err)
		}
		for _, fe := range verrs {
			errs.Add(fieldPath(fe), messageFor(fe))
		}
		return nil, errs
	}
	return &patch, nil
}

// checkShape enforces presence and JSON types. Nested objects are always checked in full.
func checkShape(raw map[string]any, fields []field, prefix string, full bool, errs *apperr.ValidationError) {
	for _, f := range fields {
		path := prefix + f.name
		value, ok := raw[f.name]
		if !ok {
			if full && !f.optional {
				errs.Add(path, "is required")
			}
			continue
		}

		switch f.kind {
		case kindBool:
			if _, ok := value.(bool); !ok {
				errs.Add(path, "must be a boolean")
			}
		case kindString:
			if _, ok := value.(string); !ok {
				errs.Add(path, "must be a string")
			}
		case kindNullableString:
			if value == nil {
				continue
			}
			if _, ok := value.(string); !ok {
				errs.Add(path, "must be a string or null")
			}
		case kindObject:
			obj, ok := value.(map[string]any)
			if !ok {
				errs.Add(path, "must be an object")
				continue
			}
			checkShape(obj, f.fields, path+".", true, errs)
		}
	}
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := ruleMessages[fe.Tag()]; ok {
		return msg
	}
	return "is invalid"
}
