package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the integration test database. Tests calling it are
// skipped when no MySQL instance is reachable, so the suite stays runnable
// on machines without one. Override the DSN with DELIGO_TEST_DSN.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("DELIGO_TEST_DSN")
	if dsn == "" {
		dsn = "root:@tcp(localhost:3306)/deligo_test?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties every table touched by the integration tests.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{
		"OrderRejections", "OrderItems", "Payments", "Orders",
		"VoucherRedemptions", "Vouchers", "MenuItems", "Restaurants", "Users",
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the schema the integration tests expect.
func SetupTestTables(t *testing.T, db *sql.DB) {
	createUsersTable := `
	CREATE TABLE IF NOT EXISTS Users (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		fullname VARCHAR(100) NOT NULL,
		email VARCHAR(150) NOT NULL UNIQUE,
		phone VARCHAR(30),
		role VARCHAR(20) NOT NULL DEFAULT 'customer',
		balance DECIMAL(12,2) NOT NULL DEFAULT 0.00,
		isActive TINYINT(1) NOT NULL DEFAULT 1,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

	createRestaurantsTable := `
	CREATE TABLE IF NOT EXISTS Restaurants (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(150) NOT NULL,
		address VARCHAR(255),
		hotline VARCHAR(30),
		isActive TINYINT(1) NOT NULL DEFAULT 1,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

	createMenuItemsTable := `
	CREATE TABLE IF NOT EXISTS MenuItems (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		restaurantId INT UNSIGNED NOT NULL,
		foodName VARCHAR(150) NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		category VARCHAR(100) NOT NULL DEFAULT '',
		isAvailable TINYINT(1) NOT NULL DEFAULT 1,
		FOREIGN KEY (restaurantId) REFERENCES Restaurants(id) ON DELETE CASCADE,
		INDEX idx_restaurant (restaurantId)
	)`

	createVouchersTable := `
	CREATE TABLE IF NOT EXISTS Vouchers (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(50) NOT NULL UNIQUE,
		name VARCHAR(150) NOT NULL,
		type VARCHAR(20) NOT NULL,
		value DECIMAL(12,2) NOT NULL,
		maxDiscount DECIMAL(12,2),
		minOrderAmount DECIMAL(12,2),
		restaurantId INT UNSIGNED,
		description TEXT,
		firstOrderOnly TINYINT(1) NOT NULL DEFAULT 0,
		isActive TINYINT(1) NOT NULL DEFAULT 1,
		startDate DATETIME NOT NULL,
		endDate DATETIME NOT NULL,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_code (code)
	)`

	createVoucherRedemptionsTable := `
	CREATE TABLE IF NOT EXISTS VoucherRedemptions (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		promoId INT UNSIGNED NOT NULL,
		userId INT UNSIGNED NOT NULL,
		usedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_promo_user (promoId, userId),
		INDEX idx_user (userId)
	)`

	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS Orders (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		userId INT UNSIGNED NOT NULL,
		restaurantId INT UNSIGNED NOT NULL,
		shipperId INT UNSIGNED,
		paymentId INT UNSIGNED,
		promoId INT UNSIGNED,
		status VARCHAR(20) NOT NULL DEFAULT 'Pending',
		userFullname VARCHAR(100) NOT NULL,
		userPhone VARCHAR(30) NOT NULL DEFAULT '',
		restaurantName VARCHAR(150) NOT NULL,
		restaurantAddress VARCHAR(255) NOT NULL DEFAULT '',
		restaurantHotline VARCHAR(30),
		address VARCHAR(255) NOT NULL,
		note TEXT,
		subtotal DECIMAL(12,2) NOT NULL,
		shippingFee DECIMAL(12,2) NOT NULL,
		discount DECIMAL(12,2) NOT NULL DEFAULT 0.00,
		totalAmount DECIMAL(12,2) NOT NULL,
		paymentMethod VARCHAR(20) NOT NULL,
		isReviewed TINYINT(1) NOT NULL DEFAULT 0,
		cancelledBy VARCHAR(20),
		cancellationReason VARCHAR(255),
		refunded TINYINT(1) NOT NULL DEFAULT 0,
		refundedAmount DECIMAL(12,2) NOT NULL DEFAULT 0.00,
		refundedAt DATETIME,
		pickedAt DATETIME,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_user (userId),
		INDEX idx_restaurant (restaurantId),
		INDEX idx_shipper (shipperId),
		INDEX idx_status (status)
	)`

	createOrderItemsTable := `
	CREATE TABLE IF NOT EXISTS OrderItems (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		orderId INT UNSIGNED NOT NULL,
		foodName VARCHAR(150) NOT NULL,
		quantity INT NOT NULL DEFAULT 1,
		unitPrice DECIMAL(12,2) NOT NULL,
		subtotal DECIMAL(12,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'Active',
		FOREIGN KEY (orderId) REFERENCES Orders(id) ON DELETE CASCADE,
		INDEX idx_order (orderId)
	)`

	createOrderRejectionsTable := `
	CREATE TABLE IF NOT EXISTS OrderRejections (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		orderId INT UNSIGNED NOT NULL,
		shipperId INT UNSIGNED NOT NULL,
		reason VARCHAR(255),
		rejectedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_order_shipper (orderId, shipperId),
		FOREIGN KEY (orderId) REFERENCES Orders(id) ON DELETE CASCADE
	)`

	createPaymentsTable := `
	CREATE TABLE IF NOT EXISTS Payments (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		orderId INT UNSIGNED NOT NULL,
		userId INT UNSIGNED NOT NULL,
		amount DECIMAL(12,2) NOT NULL,
		method VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'Pending',
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_order (orderId),
		INDEX idx_user (userId)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"Users", createUsersTable},
		{"Restaurants", createRestaurantsTable},
		{"MenuItems", createMenuItemsTable},
		{"Vouchers", createVouchersTable},
		{"VoucherRedemptions", createVoucherRedemptionsTable},
		{"Orders", createOrdersTable},
		{"OrderItems", createOrderItemsTable},
		{"OrderRejections", createOrderRejectionsTable},
		{"Payments", createPaymentsTable},
	}

	for _, tbl := range tables {
		if _, err := db.Exec(tbl.query); err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
