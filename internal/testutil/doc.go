// Package testutil contains helper builders and doubles used across tests
// to reduce boilerplate when constructing route definitions and presenting
// content. They are not intended for production usage.
package testutil
