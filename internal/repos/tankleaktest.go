package repos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tekmak/kys-backend/internal/logger"
	"github.com/tekmak/kys-backend/internal/types"
)

// TankLeakTestFilter composes with logical AND. Zero values mean
// "no constraint". TankID matches as a case-insensitive substring,
// the date bounds are inclusive on test_date.
type TankLeakTestFilter struct {
	Status    string
	TankID    string
	WelderID  *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

type TankLeakTestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tests []*types.TankLeakTest) ([]*types.TankLeakTest, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TankLeakTest, error)
	List(ctx context.Context, tx *gorm.DB, filter TankLeakTestFilter, page, pageSize int) ([]*types.TankLeakTest, int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (int64, error)
	FullDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
}

type tankLeakTestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTankLeakTestRepo(db *gorm.DB, baseLog *logger.Logger) TankLeakTestRepo {
	repoLog := baseLog.With("repo", "TankLeakTestRepo")
	return &tankLeakTestRepo{db: db, log: repoLog}
}

func (r *tankLeakTestRepo) Create(ctx context.Context, tx *gorm.DB, tests []*types.TankLeakTest) ([]*types.TankLeakTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(tests) == 0 {
		return []*types.TankLeakTest{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

func (r *tankLeakTestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TankLeakTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var test types.TankLeakTest
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&test).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &test, nil
}

func (r *tankLeakTestRepo) List(ctx context.Context, tx *gorm.DB, filter TankLeakTestFilter, page, pageSize int) ([]*types.TankLeakTest, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Model(&types.TankLeakTest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TankID != "" {
		query = query.Where("tank_id ILIKE ?", "%"+escapeLikePattern(filter.TankID)+"%")
	}
	if filter.WelderID != nil {
		query = query.Where("welder_id = ?", *filter.WelderID)
	}
	if filter.StartDate != nil {
		query = query.Where("test_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("test_date <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.TankLeakTest
	if err := query.
		Order("test_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// escapeLikePattern neutralizes LIKE metacharacters in user-supplied
// filter values so "%" and "_" match literally. Postgres treats
// backslash as the default escape character.
func escapeLikePattern(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *tankLeakTestRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(updates) == 0 {
		return 0, nil
	}

	result := transaction.WithContext(ctx).
		Model(&types.TankLeakTest{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *tankLeakTestRepo) FullDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.TankLeakTest{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
