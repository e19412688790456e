package helpers

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/greenwaste/collection-gateway/internal/repository"
	"github.com/greenwaste/collection-gateway/pkg/pg"
	"github.com/greenwaste/collection-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.SettlementEntity{},
		&repository.ContainerTypeEntity{},
		&repository.PricingEntity{},
		&repository.ReportEntity{},
		&repository.NotificationEntity{},
		&repository.UserEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Unique connection name per test to avoid global adapter caching
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestSettlement(t *testing.T, db *pg.DB, id int64, name, contactPhone string) *repository.SettlementEntity {
	ctx := context.Background()
	settlement := &repository.SettlementEntity{
		ID:           id,
		Name:         name,
		ContactName:  "Coordinator",
		ContactPhone: contactPhone,
	}
	err := db.Write(ctx).Create(settlement).Error
	require.NoError(t, err)
	return settlement
}

func CreateTestContainerType(t *testing.T, db *pg.DB, id int64, name string, size float64) *repository.ContainerTypeEntity {
	ctx := context.Background()
	containerType := &repository.ContainerTypeEntity{
		ID:   id,
		Name: name,
		Size: size,
		Unit: "m3",
	}
	err := db.Write(ctx).Create(containerType).Error
	require.NoError(t, err)
	return containerType
}

func CreateTestPricing(t *testing.T, db *pg.DB, settlementID, containerTypeID int64, price string, active bool) *repository.PricingEntity {
	ctx := context.Background()
	pricing := &repository.PricingEntity{
		SettlementID:    settlementID,
		ContainerTypeID: containerTypeID,
		Price:           decimal.RequireFromString(price),
		Currency:        "ILS",
		IsActive:        active,
	}
	err := db.Write(ctx).Create(pricing).Error
	require.NoError(t, err)
	return pricing
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
