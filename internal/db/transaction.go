package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithRepositories runs fn inside one transaction with every repository bound
// to it. Returning an error or panicking rolls the whole unit back.
func (db *DB) WithRepositories(ctx context.Context, fn func(*Repositories) error) error {
	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(&DB{DB: tx}))
	})
	if err != nil {
		return fmt.Errorf("transaction rolled back: %w", err)
	}
	return nil
}
