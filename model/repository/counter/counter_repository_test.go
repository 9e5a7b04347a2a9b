package counter

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	entity "mes.GO/model/entity"
)

func counterDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&entity.SequenceCounter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestNextSequenceStartsAtOne(t *testing.T) {
	repo := NewCounterRepository(counterDB(t))
	got, err := repo.NextSequence(context.Background(), "seq:LOT:260831")
	if err != nil {
		t.Fatalf("NextSequence: %v", err)
	}
	if got != 1 {
		t.Errorf("first value = %d, want 1", got)
	}
}

func TestNextSequenceIncrements(t *testing.T) {
	repo := NewCounterRepository(counterDB(t))
	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextSequence(ctx, "seq:LOT:260831")
		if err != nil {
			t.Fatalf("NextSequence: %v", err)
		}
		if got != want {
			t.Errorf("value = %d, want %d", got, want)
		}
	}
}

func TestNextSequenceKeysAreIndependent(t *testing.T) {
	repo := NewCounterRepository(counterDB(t))
	ctx := context.Background()
	if _, err := repo.NextSequence(ctx, "seq:LOT:260831"); err != nil {
		t.Fatalf("NextSequence: %v", err)
	}
	got, err := repo.NextSequence(ctx, "seq:RCV:260831")
	if err != nil {
		t.Fatalf("NextSequence: %v", err)
	}
	if got != 1 {
		t.Errorf("fresh key value = %d, want 1", got)
	}
}
