package entity

import "time"

// SequenceCounter represents the sequence_counters table: keyed counters
// for lot numbering when Redis is not configured. Incremented with an
// upsert inside a transaction so concurrent callers never reuse a value.
type SequenceCounter struct {
	CounterKey string    `gorm:"column:counter_key;type:varchar(64);primaryKey" json:"counter_key"`
	Value      int64     `gorm:"column:value;not null;default:0" json:"value"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (SequenceCounter) TableName() string {
	return "sequence_counters"
}
