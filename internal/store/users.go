package store

import (
	"context"

	"maintenance-backend/internal/model"
)

func (s *gormStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).Order("username").Find(&users).Error
	return users, translate(err)
}

func (s *gormStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	return getByID[model.User](ctx, s.db, id)
}

func (s *gormStore) UserByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	return u, translate(err)
}

func (s *gormStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("email_address = ?", email).First(&u).Error
	return u, translate(err)
}

// CreateUser inserts u. The password must already be hashed.
func (s *gormStore) CreateUser(ctx context.Context, u *model.User) error {
	if err := s.check(u); err != nil {
		return err
	}
	return create(ctx, s.db, u)
}

// UpdateUser saves profile and permission fields; the password is left untouched.
func (s *gormStore) UpdateUser(ctx context.Context, u *model.User) error {
	if err := s.check(u); err != nil {
		return err
	}
	return updateByID(ctx, s.db, u.ID, u, "password")
}

func (s *gormStore) SetPassword(ctx context.Context, id int64, hash string) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteUser(ctx context.Context, id int64) error {
	return deleteByID[model.User](ctx, s.db, id)
}

func (s *gormStore) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, translate(err)
}
