// internal/core/domain/order.go
package domain

import (
	"fmt"
	"strings"
)

// Order represents a consignment order (cons_orders)
type Order struct {
	ConsID      int32    `json:"consId"`
	OrderState  int32    `json:"orderState"`
	IncomeDate  DateTime `json:"incomeDate"`
	AccountNum  *string  `json:"accountNum"`
	AccountDate DateTime `json:"accountDate"`
	BySelf      *bool    `json:"bySelf"`
	HasTrust    *bool    `json:"hasTrust"`
	SellerID    int32    `json:"sellerId"`
	TrustNum    *int32   `json:"trustNum"`
	TrustSer    *string  `json:"trustSer"`
	Comment     *string  `json:"comment"`
}

// CreateOrder is the input for a new order. Identity and state are assigned
// by the database.
type CreateOrder struct {
	IncomeDate  DateTime `json:"incomeDate"`
	AccountNum  *string  `json:"accountNum"`
	AccountDate DateTime `json:"accountDate"`
	BySelf      *bool    `json:"bySelf"`
	HasTrust    *bool    `json:"hasTrust"`
	SellerID    int32    `json:"sellerId"`
	TrustNum    *int32   `json:"trustNum"`
	TrustSer    *string  `json:"trustSer"`
	Comment     *string  `json:"comment"`
}

// Validate checks the create request
func (o *CreateOrder) Validate() error {
	if o.SellerID < 0 {
		return fmt.Errorf("%w: sellerId cannot be negative", ErrInvalidInput)
	}
	if o.AccountNum != nil && strings.TrimSpace(*o.AccountNum) == "" {
		return fmt.Errorf("%w: accountNum cannot be blank", ErrInvalidInput)
	}
	if o.TrustNum != nil && *o.TrustNum < 0 {
		return fmt.Errorf("%w: trustNum cannot be negative", ErrInvalidInput)
	}
	return nil
}
