// Package selector validates the household needs entered into the membership
// selector before they reach the recommendation engine.
package selector

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/redbuttegarden/memberships/internal/domain/recommend"
)

// Defaults for the selector limits and presale message.
const (
	DefaultMaxCardholders  = 10
	DefaultMaxGuests       = 20
	TicketsPlaceholder     = "{tickets}"
	DefaultPresaleTemplate = "To qualify for Outdoor Concert Member Presale access at the {tickets} " +
		"ticket level, please add a combination of cardholders and guests that is equal to or " +
		"greater than {tickets}."

	tagTicketStep = "ticket_step"
	tagPresale    = "presale"
	tagMax        = "max"
)

// Request is the household's requested entitlements.
type Request struct {
	Cardholders int `json:"cardholders" validate:"min=1"`
	Guests      int `json:"guests" validate:"min=0"`
	Tickets     int `json:"tickets" validate:"min=0,ticket_step"`
}

// Validator checks Requests against the selector form rules.
type Validator struct {
	validate        *validator.Validate
	maxCardholders  int
	maxGuests       int
	presaleTemplate string
}

// Option configures a Validator.
type Option func(*Validator)

// WithLimits caps cardholders and guests. Non-positive values keep the default.
func WithLimits(maxCardholders, maxGuests int) Option {
	return func(v *Validator) {
		if maxCardholders > 0 {
			v.maxCardholders = maxCardholders
		}
		if maxGuests > 0 {
			v.maxGuests = maxGuests
		}
	}
}

// WithPresaleTemplate sets the message used when the presale rule fails.
// The template should contain "{tickets}".
func WithPresaleTemplate(tmpl string) Option {
	return func(v *Validator) {
		if strings.TrimSpace(tmpl) != "" {
			v.presaleTemplate = tmpl
		}
	}
}

// New builds a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		validate:        validator.New(),
		maxCardholders:  DefaultMaxCardholders,
		maxGuests:       DefaultMaxGuests,
		presaleTemplate: DefaultPresaleTemplate,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.validate.RegisterValidation(tagTicketStep, func(fl validator.FieldLevel) bool {
		return recommend.IsTicketStep(int(fl.Field().Int()))
	}); err != nil {
		panic(fmt.Sprintf("selector: register %s: %v", tagTicketStep, err))
	}
	v.validate.RegisterStructValidation(v.structLevel, Request{})
	return v
}

// structLevel applies the limits and the presale qualification rule.
func (v *Validator) structLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(Request)
	if req.Cardholders > v.maxCardholders {
		sl.ReportError(req.Cardholders, "cardholders", "Cardholders", tagMax, strconv.Itoa(v.maxCardholders))
	}
	if req.Guests > v.maxGuests {
		sl.ReportError(req.Guests, "guests", "Guests", tagMax, strconv.Itoa(v.maxGuests))
	}
	if recommend.IsTicketStep(req.Tickets) && req.Cardholders+req.Guests < req.Tickets {
		sl.ReportError(req.Tickets, "tickets", "Tickets", tagPresale, strconv.Itoa(req.Tickets))
	}
}

// Validate returns every field error for req; nil means req is valid.
func (v *Validator) Validate(req Request) []FieldError {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: v.message(fe),
		})
	}
	return out
}

// Check is Validate in error form; failures unwrap to ErrInvalidRequest.
func (v *Validator) Check(req Request) error {
	if fields := v.Validate(req); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// PresaleMessage renders the presale qualification message for tickets.
func (v *Validator) PresaleMessage(tickets int) string {
	return strings.ReplaceAll(v.presaleTemplate, TicketsPlaceholder, strconv.Itoa(tickets))
}

func (v *Validator) message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case tagMax:
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case tagTicketStep:
		return fmt.Sprintf("%s must be one of %v", field, recommend.TicketSteps)
	case tagPresale:
		n, _ := strconv.Atoi(fe.Param())
		return v.PresaleMessage(n)
	default:
		return fmt.Sprintf("%s failed validation for tag: %s", field, fe.Tag())
	}
}
