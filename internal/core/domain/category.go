// internal/core/domain/category.go
package domain

import (
	"fmt"
	"strings"
)

// Category represents a goods category (cons_cats)
type Category struct {
	CatID       int32   `json:"catId"`
	ParentID    *int32  `json:"parentId"`
	CatName     *string `json:"catName"`
	CatUnitCode int32   `json:"catUnitCode"`
	Code        int32   `json:"code"`
}

// CreateCategory is the input for a new category
type CreateCategory struct {
	ParentID    *int32  `json:"parentId"`
	CatName     *string `json:"catName"`
	CatUnitCode int32   `json:"catUnitCode"`
	Code        int32   `json:"code"`
}

// Validate checks the create request
func (c *CreateCategory) Validate() error {
	if c.CatName != nil && strings.TrimSpace(*c.CatName) == "" {
		return fmt.Errorf("%w: catName cannot be blank", ErrInvalidInput)
	}
	if c.ParentID != nil && *c.ParentID <= 0 {
		return fmt.Errorf("%w: parentId must be positive", ErrInvalidInput)
	}
	return nil
}
