// Package payment validates the card fields submitted at checkout.  No
// gateway is contacted; accepted details are masked and stored.
package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Card brands recognised by prefix.
const (
	BrandVisa       = "visa"
	BrandAmex       = "amex"
	BrandMastercard = "mastercard"
	BrandGeneric    = "generic"
)

// ErrInvalidCard wraps every field failure returned by Validate.
var ErrInvalidCard = errors.New("invalid card details")

// Card is the checkout form.
type Card struct {
	Number       string `json:"card_number" validate:"required,numeric,min=13,max=19,credit_card"`
	Expiry       string `json:"card_expiry" validate:"required,card_expiry"`
	SecurityCode string `json:"card_code" validate:"required,numeric,min=3,max=4"`
}

// FieldErrors maps the JSON field name to a human-readable message.
type FieldErrors map[string]string

// ValidationError carries the per-field messages of a rejected card.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "invalid card details: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidCard }

// Validator checks cards against a fixed clock source.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// NewValidator registers the card_expiry tag on a fresh validator.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	pv := &Validator{v: v, now: now}
	_ = v.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
		return ExpiryValid(fl.Field().String(), pv.now())
	})
	return pv
}

// Validate normalises the card in place and returns a *ValidationError
// describing every failing field.
func (pv *Validator) Validate(c *Card) error {
	c.Number = digitsOnly(c.Number)
	c.Expiry = strings.TrimSpace(c.Expiry)
	c.SecurityCode = strings.TrimSpace(c.SecurityCode)

	fields := FieldErrors{}
	if err := pv.v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate card: %w", err)
		}
		for _, fe := range verrs {
			fields[jsonName(fe.Field())] = message(fe)
		}
	}
	if _, bad := fields["card_code"]; !bad && c.Number != "" {
		want := 3
		if Brand(c.Number) == BrandAmex {
			want = 4
		}
		if len(c.SecurityCode) != want {
			fields["card_code"] = fmt.Sprintf("must be %d digits for this card", want)
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Brand detects the card network from the number prefix.
func Brand(number string) string {
	n := digitsOnly(number)
	switch {
	case strings.HasPrefix(n, "4"):
		return BrandVisa
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return BrandAmex
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return BrandMastercard
	case len(n) >= 4:
		if p, err := strconv.Atoi(n[:4]); err == nil && p >= 2221 && p <= 2720 {
			return BrandMastercard
		}
	}
	return BrandGeneric
}

// Last4 returns the trailing four digits of a card number.
func Last4(number string) string {
	n := digitsOnly(number)
	if len(n) <= 4 {
		return n
	}
	return n[len(n)-4:]
}

// ExpiryValid reports whether an MM/YY expiry is well formed and not
// before the month of now.
func ExpiryValid(s string, now time.Time) bool {
	mm, yy, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || len(mm) != 2 || len(yy) != 2 {
		return false
	}
	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return false
	}
	year, err := strconv.Atoi(yy)
	if err != nil {
		return false
	}
	year += 2000
	cy, cm, _ := now.Date()
	return year > cy || (year == cy && month >= int(cm))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r != ' ' && r != '-' {
			// keep foreign characters so the numeric rule rejects them
			b.WriteRune(r)
		}
	}
	return b.String()
}

func jsonName(field string) string {
	switch field {
	case "Number":
		return "card_number"
	case "Expiry":
		return "card_expiry"
	case "SecurityCode":
		return "card_code"
	}
	return strings.ToLower(field)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "numeric":
		return "must contain digits only"
	case "min", "max":
		return "has the wrong number of digits"
	case "credit_card":
		return "is not a valid card number"
	case "card_expiry":
		return "must be a future MM/YY date"
	}
	return "is invalid"
}
