package domain

import (
	"context"
	"fmt"
)

// User is a row of the users table. The text columns are nullable.
type User struct {
	UserID    int64   `gorm:"column:userId;primaryKey;autoIncrement" json:"userId"`
	FirstName *string `gorm:"column:firstName" json:"firstName"`
	LastName  *string `gorm:"column:lastName" json:"lastName"`
	Role      *string `gorm:"column:role" json:"role"`
}

func (User) TableName() string { return "users" }

// UserRepository is the record store. FindByID returns (nil, nil) for a
// missing row; Update and Delete do not report whether a row matched.
type UserRepository interface {
	List(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}

// StoreError wraps any failure opening, initialising or querying the store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }
