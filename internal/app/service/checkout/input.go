package checkout

import (
	"strings"

	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/money"
	"github.com/fatflowers/patron/pkg/types"
)

// ContactInput is the person part of every submission.
type ContactInput struct {
	Email   string `json:"email" validate:"required,email,max=320"`
	Name    string `json:"name" validate:"max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address" validate:"max=500"`
	Lang    string `json:"lang" validate:"max=16"`
	Ref     string `json:"ref" validate:"max=128"`
}

type DonationInput struct {
	ContactInput
	EntryURL     string       `json:"entryUrl" validate:"required,max=2048"`
	Amount       money.Amount `json:"amount"`
	CheckoutName string       `json:"checkoutName" validate:"max=200"`
}

type MembershipInput struct {
	ContactInput
	EntryURL     string `json:"entryUrl" validate:"required,max=2048"`
	Plan         string `json:"plan" validate:"required,max=128"`
	CheckoutName string `json:"checkoutName" validate:"max=200"`
}

type ManualDonationInput struct {
	ContactInput
	Amount        money.Amount      `json:"amount"`
	PaymentMethod types.PaymentType `json:"paymentMethod" validate:"required,oneof=cash check"`
}

type ManualMembershipInput struct {
	ContactInput
	Plan          string            `json:"plan" validate:"required,max=128"`
	PaymentMethod types.PaymentType `json:"paymentMethod" validate:"required,oneof=cash check"`
}

// validateInput reports the first failing field as a ValidationError.
func validateInput(in any) error {
	return apperror.ValidateStruct(in)
}

func (c *ContactInput) trim() {
	c.Email = strings.TrimSpace(c.Email)
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.Lang = strings.ToLower(strings.TrimSpace(c.Lang))
	c.Ref = strings.TrimSpace(c.Ref)
}
