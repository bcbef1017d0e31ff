package service_test

import (
	"fmt"
	"sync"
	"testing"

	"shopper-backend/internal/mailer"
	"shopper-backend/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.WebhookEvent{},
	))

	return db
}

// fakeMailer records notification calls so tests can assert side effects
// without touching SMTP.
type fakeMailer struct {
	mu       sync.Mutex
	welcomes []string
	resets   []string
	orders   []*model.Order
}

var _ mailer.Mailer = (*fakeMailer)(nil)

func (f *fakeMailer) SendWelcome(email, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, email)
}

func (f *fakeMailer) SendPasswordReset(email, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, email)
}

func (f *fakeMailer) SendOrderConfirmation(email, name string, order *model.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
}

func (f *fakeMailer) Close() {}
