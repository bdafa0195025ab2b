package gql

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"go-gin-graphql-users/internal/domain"
)

const userDeleted = "User deleted"

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	users  domain.UserRepository
	random func() int
}

func NewResolver(users domain.UserRepository) *Resolver {
	return &Resolver{
		users:  users,
		random: func() int { return rand.IntN(100) },
	}
}

// WithRandom replaces the source used by randomNumber.
func (r *Resolver) WithRandom(fn func() int) *Resolver {
	r.random = fn
	return r
}

func (r *Resolver) Hello() *string {
	s := "world"
	return &s
}

func (r *Resolver) RandomNumber() *int32 {
	n := int32(r.random())
	return &n
}

func (r *Resolver) GetUsers(ctx context.Context) (*[]*userResolver, error) {
	users, err := r.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*userResolver, 0, len(users))
	for i := range users {
		out = append(out, &userResolver{u: users[i]})
	}
	return &out, nil
}

func (r *Resolver) GetUser(ctx context.Context, args struct{ UserID int32 }) (*userResolver, error) {
	u, err := r.users.FindByID(ctx, int64(args.UserID))
	if err != nil || u == nil {
		return nil, err
	}
	return &userResolver{u: *u}, nil
}

type createUserArgs struct {
	FirstName string
	LastName  string
	Role      string
}

func (r *Resolver) CreateUser(ctx context.Context, args createUserArgs) (*userResolver, error) {
	u := domain.User{FirstName: &args.FirstName, LastName: &args.LastName, Role: &args.Role}
	if err := r.users.Create(ctx, &u); err != nil {
		return nil, err
	}
	return &userResolver{u: u}, nil
}

type updateUserArgs struct {
	UserID    int32
	FirstName *string
	LastName  *string
	Role      *string
}

// UpdateUser writes exactly the given fields; anything omitted is stored as
// null. The result echoes the input without re-reading the row.
func (r *Resolver) UpdateUser(ctx context.Context, args updateUserArgs) (*userResolver, error) {
	u := domain.User{
		UserID:    int64(args.UserID),
		FirstName: args.FirstName,
		LastName:  args.LastName,
		Role:      args.Role,
	}
	if err := r.users.Update(ctx, &u); err != nil {
		return nil, err
	}
	return &userResolver{u: u}, nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args struct{ UserID int32 }) (*string, error) {
	if err := r.users.Delete(ctx, int64(args.UserID)); err != nil {
		return nil, err
	}
	s := userDeleted
	return &s, nil
}

type userResolver struct{ u domain.User }

// UserID fails instead of wrapping when the stored id is outside GraphQL's
// 32-bit Int.
func (r *userResolver) UserID() (*int32, error) {
	if r.u.UserID > math.MaxInt32 || r.u.UserID < math.MinInt32 {
		return nil, fmt.Errorf("userId %d overflows GraphQL Int", r.u.UserID)
	}
	id := int32(r.u.UserID)
	return &id, nil
}

func (r *userResolver) FirstName() *string { return r.u.FirstName }
func (r *userResolver) LastName() *string  { return r.u.LastName }
func (r *userResolver) Role() *string      { return r.u.Role }
