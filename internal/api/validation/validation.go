// Package validation evaluates the declarative `binding` schemas on inbound
// request structs and reports failures as field issues.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/railzwaylabs/travel-gateway/internal/apierror"
)

const maxBodyBytes = 1 << 20

// Error is a rejected input. It never reaches the error mapper.
type Error struct {
	Message string
	Issues  []apierror.Issue
}

func (e *Error) Error() string { return e.Message }

var (
	setupOnce sync.Once
	iataCode  = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Engine returns the shared validator with the custom rules registered.
func Engine() *validator.Validate {
	v, _ := binding.Validator.Engine().(*validator.Validate)
	setupOnce.Do(func() {
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("iata", func(fl validator.FieldLevel) bool {
			return iataCode.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("notbefore", notBefore)
		_ = v.RegisterValidation("jsonobject", jsonObject)
	})
	return v
}

// BindQuery binds and validates query parameters into dst. Slice fields
// tagged `collection_format:"csv"` also accept comma separated values.
func BindQuery(c *gin.Context, dst any) *Error {
	Engine()
	values := splitLists(dst, c.Request.URL.Query())
	if err := binding.MapFormWithTag(dst, values, "form"); err != nil {
		return typeError(err, dst, values, "form", "query")
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		return fromBindError(err, "query")
	}
	return nil
}

// BindURI binds and validates path parameters into dst.
func BindURI(c *gin.Context, dst any) *Error {
	Engine()
	params := make(map[string][]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = []string{p.Value}
	}
	if err := binding.MapFormWithTag(dst, params, "uri"); err != nil {
		return typeError(err, dst, params, "uri", "path")
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		return fromBindError(err, "path")
	}
	return nil
}

// BindJSON decodes the body and then validates it. A body that does not
// parse is reported on its own, before any schema rule runs.
func BindJSON(c *gin.Context, dst any) *Error {
	Engine()
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		return malformed("request body could not be read")
	}
	if len(raw) > maxBodyBytes {
		return malformed("request body is too large")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return malformed("request body is required")
	}
	if !json.Valid(raw) {
		return malformed("request body is not valid JSON")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return &Error{
				Message: "Request validation failed",
				Issues: []apierror.Issue{{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("%s must be of type %s", field, typeErr.Type.String()),
				}},
			}
		}
		return malformed("request body is not valid JSON")
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		return fromBindError(err, "body")
	}
	return nil
}

// splitLists expands comma separated values of csv list fields and drops
// blank entries.
func splitLists(dst any, values url.Values) url.Values {
	t, ok := structType(dst)
	if !ok {
		return values
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Tag.Get("collection_format") != "csv" {
			continue
		}
		name := tagName(f, "form")
		raw, ok := values[name]
		if !ok {
			continue
		}
		parts := make([]string, 0, len(raw))
		for _, v := range raw {
			for _, p := range strings.Split(v, ",") {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
		}
		if len(parts) == 0 {
			delete(values, name)
			continue
		}
		values[name] = parts
	}
	return values
}

// typeError names the parameters whose values do not parse into their
// field's type.
func typeError(err error, dst any, values map[string][]string, tag, source string) *Error {
	var issues []apierror.Issue
	if t, ok := structType(dst); ok {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := tagName(f, tag)
			raw, ok := values[name]
			if name == "-" || !ok {
				continue
			}
			kind := scalarKind(f.Type)
			for _, v := range raw {
				if !parses(kind, v) {
					issues = append(issues, apierror.Issue{
						Field:   name,
						Rule:    "type",
						Message: name + " " + typeMessage(kind),
					})
					break
				}
			}
		}
	}
	if len(issues) == 0 {
		issues = []apierror.Issue{{Field: source, Rule: "type", Message: err.Error()}}
	}
	return &Error{Message: "Request validation failed", Issues: issues}
}

func structType(dst any) (reflect.Type, bool) {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, t != nil && t.Kind() == reflect.Struct
}

func tagName(f reflect.StructField, tag string) string {
	if name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]; name != "" {
		return name
	}
	return f.Name
}

func scalarKind(t reflect.Type) reflect.Kind {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	return t.Kind()
}

// parses mirrors the form mapper, which reads an empty value as the zero value.
func parses(kind reflect.Kind, v string) bool {
	if v == "" {
		return true
	}
	var err error
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		_, err = strconv.ParseInt(v, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		_, err = strconv.ParseUint(v, 10, 64)
	case reflect.Float32, reflect.Float64:
		_, err = strconv.ParseFloat(v, 64)
	case reflect.Bool:
		_, err = strconv.ParseBool(v)
	}
	return err == nil
}

func typeMessage(kind reflect.Kind) string {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "must be an integer"
	case reflect.Float32, reflect.Float64:
		return "must be a number"
	case reflect.Bool:
		return "must be true or false"
	}
	return "has an invalid value"
}

func malformed(msg string) *Error {
	return &Error{
		Message: "Malformed JSON body",
		Issues:  []apierror.Issue{{Field: "body", Rule: "json", Message: msg}},
	}
}

func fromBindError(err error, source string) *Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &Error{Message: "Request validation failed", Issues: Issues(verrs)}
	}
	return &Error{
		Message: "Request validation failed",
		Issues:  []apierror.Issue{{Field: source, Rule: "type", Message: err.Error()}},
	}
}

// Issues converts validator errors into field issues.
func Issues(verrs validator.ValidationErrors) []apierror.Issue {
	out := make([]apierror.Issue, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		out = append(out, apierror.Issue{
			Field:   field,
			Rule:    fe.Tag(),
			Message: field + " " + describe(fe),
		})
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		return fe.Field()
	}
	return ns
}

func describe(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required unless %s is provided", lowerFirst(param))
	case "min", "gte":
		return sizeMessage(fe.Kind(), "at least", param)
	case "max", "lte":
		return sizeMessage(fe.Kind(), "at most", param)
	case "len":
		return sizeMessage(fe.Kind(), "exactly", param)
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "iata":
		return "must be a 3-letter IATA code"
	case "notbefore":
		return "must not be before " + lowerFirst(param)
	case "jsonobject":
		return "must be a JSON object"
	case "nefield":
		return "must differ from " + lowerFirst(param)
	case "email":
		return "must be a valid email address"
	case "numeric":
		return "must contain digits only"
	case "alpha":
		return "must contain letters only"
	case "alphanum":
		return "must contain letters and digits only"
	case "uppercase":
		return "must be uppercase"
	}
	return "failed the " + fe.Tag() + " rule"
}

func sizeMessage(kind reflect.Kind, bound, param string) string {
	switch kind {
	case reflect.String:
		return fmt.Sprintf("must be %s %s characters long", bound, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("must contain %s %s items", bound, param)
	}
	return fmt.Sprintf("must be %s %s", bound, param)
}

// fieldName reports fields by their wire name so issues match what the
// caller sent.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// notBefore compares ISO dates held in strings; the param names the sibling
// field by Go name. An empty sibling passes.
func notBefore(fl validator.FieldLevel) bool {
	other := fl.Parent().FieldByName(fl.Param())
	if !other.IsValid() || other.Kind() != reflect.String {
		return false
	}
	if other.String() == "" || fl.Field().String() == "" {
		return true
	}
	return fl.Field().String() >= other.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func jsonObject(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.Slice {
		return false
	}
	raw := bytes.TrimSpace(fl.Field().Bytes())
	return len(raw) > 0 && raw[0] == '{'
}
