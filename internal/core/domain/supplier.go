// internal/core/domain/supplier.go
package domain

import (
	"fmt"
	"strings"
)

// Supplier represents a goods supplier (cons_suppliers)
type Supplier struct {
	SupplierID   int32   `json:"supplierId"`
	SupplierName string  `json:"supplierName"`
	INN          *string `json:"inn"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
	Comment      *string `json:"comment"`
}

// CreateSupplier is the input for a new supplier
type CreateSupplier struct {
	SupplierName string  `json:"supplierName"`
	INN          *string `json:"inn"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
	Comment      *string `json:"comment"`
}

// Validate checks the create request
func (s *CreateSupplier) Validate() error {
	if strings.TrimSpace(s.SupplierName) == "" {
		return fmt.Errorf("%w: supplierName is required", ErrInvalidInput)
	}
	return nil
}
