package repository

import (
	"context"

	"storecore/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SequenceRepository interface {
	// EnsureExists inserts the row when absent and leaves an existing row untouched.
	EnsureExists(ctx context.Context, seq *model.Sequence) error
	FindByNameForUpdate(ctx context.Context, name string) (*model.Sequence, error)
	FindByName(ctx context.Context, name string) (*model.Sequence, error)
	Increment(ctx context.Context, name string) error
	SetValue(ctx context.Context, name string, value int64) error
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) EnsureExists(ctx context.Context, seq *model.Sequence) error {
	return GetDB(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(seq).Error
}

func (r *sequenceRepository) FindByNameForUpdate(ctx context.Context, name string) (*model.Sequence, error) {
	var seq model.Sequence
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).Take(&seq).Error; err != nil {
		return nil, err
	}
	return &seq, nil
}

func (r *sequenceRepository) FindByName(ctx context.Context, name string) (*model.Sequence, error) {
	var seq model.Sequence
	if err := GetDB(ctx, r.db).Where("name = ?", name).Take(&seq).Error; err != nil {
		return nil, err
	}
	return &seq, nil
}

func (r *sequenceRepository) Increment(ctx context.Context, name string) error {
	return GetDB(ctx, r.db).Model(&model.Sequence{}).Where("name = ?", name).
		Update("current_value", gorm.Expr("current_value + ?", 1)).Error
}

func (r *sequenceRepository) SetValue(ctx context.Context, name string, value int64) error {
	return GetDB(ctx, r.db).Model(&model.Sequence{}).Where("name = ?", name).
		Update("current_value", value).Error
}
