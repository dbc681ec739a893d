package handler

import "github.com/go-playground/validator/v10"

// newValidator builds the struct validator shared by every request DTO in
// this package, the same one-validator-per-process pattern
// cypherlabdev-order-book-service's OrderServiceImpl uses.
func newValidator() *validator.Validate {
	return validator.New()
}
