package counter

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	entity "mes.GO/model/entity"
)

type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// NextSequence atomically increments and reads the counter for key. The
// upsert and the read run in one transaction so concurrent callers never
// observe the same value.
func (r *CounterRepository) NextSequence(ctx context.Context, key string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "counter_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("value + 1")}),
		}).Create(&entity.SequenceCounter{CounterKey: key, Value: 1}).Error; err != nil {
			return err
		}
		var row entity.SequenceCounter
		if err := tx.First(&row, "counter_key = ?", key).Error; err != nil {
			return err
		}
		value = row.Value
		return nil
	})
	return value, err
}
