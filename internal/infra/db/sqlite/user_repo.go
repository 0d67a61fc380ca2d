package sqlite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type userRow struct {
	UserID     int64    `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Phone      *string  `gorm:"column:phone"`
	Latitude   *float64 `gorm:"column:latitude"`
	Longitude  *float64 `gorm:"column:longitude"`
	Registered bool     `gorm:"column:registered"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) toModel() *model.User {
	return &model.User{
		UserID:     r.UserID,
		Phone:      r.Phone,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Registered: r.Registered,
	}
}

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts or merges in one statement. Absent fields are sent as NULL
// and COALESCE keeps the stored value; MAX keeps registered monotonic.
func (r *UserRepo) Upsert(ctx context.Context, userID int64, p model.UserPatch) error {
	if err := model.ValidateUserID(userID); err != nil {
		return err
	}
	row := userRow{
		UserID:     userID,
		Phone:      p.Phone,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Registered: p.Registered != nil && *p.Registered,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"phone":      gorm.Expr("COALESCE(excluded.phone, users.phone)"),
			"latitude":   gorm.Expr("COALESCE(excluded.latitude, users.latitude)"),
			"longitude":  gorm.Expr("COALESCE(excluded.longitude, users.longitude)"),
			"registered": gorm.Expr("MAX(COALESCE(users.registered, 0), excluded.registered)"),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", userID, err)
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	switch {
	case err == nil:
		return row.toModel(), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrNotFound
	default:
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
}

func (r *UserRepo) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userRow{}).
		Where("user_id = ? AND registered = 1", userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("is registered %d: %w", userID, err)
	}
	return n > 0, nil
}

func (r *UserRepo) ListRegisteredIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&userRow{}).
		Where("registered = 1").
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list registered: %w", err)
	}
	return ids, nil
}

func (r *UserRepo) CountRegistered(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&userRow{}).Where("registered = 1").Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count registered: %w", err)
	}
	return int(n), nil
}

func (r *UserRepo) ListForExport(ctx context.Context, onlyRegistered bool) ([]*model.User, error) {
	q := r.db.WithContext(ctx).Model(&userRow{}).Order("user_id")
	if onlyRegistered {
		q = q.Where("registered = 1")
	}
	var rows []userRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list for export: %w", err)
	}
	out := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *UserRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
