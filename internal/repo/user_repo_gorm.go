package repo

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-gin-graphql-users/internal/domain"
)

func byUserID(id int64) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: "userId"}, Value: id}
}

type UserRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

var _ domain.UserRepository = (*UserRepo)(nil)

func NewUserRepo(db *gorm.DB, l *zap.Logger) *UserRepo {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserRepo{db: db, log: l.Named("repo.user")}
}

// Migrate creates the users table when it does not exist yet.
func (r *UserRepo) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&domain.User{}); err != nil {
		return r.fail("create users table", err)
	}
	r.log.Info("users table ready")
	return nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, r.fail("get users", err)
	}
	return users, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where(byUserID(id)).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.fail("get user", err, zap.Int64("user_id", id))
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.UserID = 0 // 由数据库分配
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return r.fail("create user", err)
	}
	return nil
}

// Update overwrites all three text columns; nil fields become NULL.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where(byUserID(u.UserID)).
		Updates(map[string]any{
			"firstName": u.FirstName,
			"lastName":  u.LastName,
			"role":      u.Role,
		}).Error
	if err != nil {
		return r.fail("update user", err, zap.Int64("user_id", u.UserID))
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Where(byUserID(id)).Delete(&domain.User{}).Error; err != nil {
		return r.fail("delete user", err, zap.Int64("user_id", id))
	}
	return nil
}

func (r *UserRepo) fail(op string, err error, fields ...zap.Field) error {
	r.log.Error(op+" failed", append(fields, zap.Error(err))...)
	return &domain.StoreError{Op: op, Err: err}
}
