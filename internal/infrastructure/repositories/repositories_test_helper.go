package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		is_trial_active BOOLEAN NOT NULL DEFAULT 0,
		trial_ends_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createSellerRequestTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE seller_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		personal_info TEXT NOT NULL,
		business_info TEXT NOT NULL,
		documents TEXT NOT NULL,
		compliance TEXT NOT NULL,
		contract TEXT NOT NULL,
		video_verification TEXT NOT NULL,
		rejection_reason TEXT,
		reviewed_by TEXT,
		reviewed_at DATETIME,
		verified_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX uq_seller_requests_active_user
		ON seller_requests(user_id) WHERE status IN ('pending', 'approved');`)
}

func createSellerProfileTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE seller_profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		seller_request_id TEXT,
		business_info TEXT NOT NULL,
		documents TEXT NOT NULL,
		status TEXT NOT NULL,
		verification_status TEXT NOT NULL,
		verified_at DATETIME,
		settings TEXT NOT NULL,
		subscription_active BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createSubscriptionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		seller_id TEXT,
		plan_id TEXT NOT NULL,
		billing_cycle TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		transaction_id TEXT,
		payment_url TEXT,
		expires_at DATETIME NOT NULL,
		activated_at DATETIME,
		cancelled_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createNotificationTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		data TEXT,
		is_read BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME
	);`)
}
