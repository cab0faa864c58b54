package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the integration test database. It expects a MySQL
// instance on localhost:3306 with a 'popkiosk_test' schema and skips the
// test when none is reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/popkiosk_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties every test table and closes the handle.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"OrderItems", "AuditLog", "Orders", "Products", "Settings"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the tables the repositories expect.
func SetupTestTables(t *testing.T, db *sql.DB) {
	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS Orders (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		customerName VARCHAR(150) NOT NULL,
		email VARCHAR(150) NOT NULL,
		phone VARCHAR(30) NOT NULL,
		address VARCHAR(255) NOT NULL,
		postcode VARCHAR(10) NOT NULL,
		paymentRef VARCHAR(100) NOT NULL DEFAULT '',
		hasProofImage TINYINT(1) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		totalMYR DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		trackingNumber VARCHAR(100),
		courier VARCHAR(100),
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_email (email),
		INDEX idx_status (status)
	)`

	createOrderItemsTable := `
	CREATE TABLE IF NOT EXISTS OrderItems (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		orderId VARCHAR(64) NOT NULL,
		productId INT NOT NULL,
		name VARCHAR(150) NOT NULL,
		size VARCHAR(20) NOT NULL DEFAULT '',
		quantity INT NOT NULL DEFAULT 1,
		unitPrice DECIMAL(10,2) NOT NULL,
		FOREIGN KEY (orderId) REFERENCES Orders(id) ON DELETE CASCADE,
		INDEX idx_order (orderId)
	)`

	createProductsTable := `
	CREATE TABLE IF NOT EXISTS Products (
		id INT NOT NULL PRIMARY KEY,
		name VARCHAR(150) NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		unitCost DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		unitPrice DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		isActive TINYINT(1) NOT NULL DEFAULT 1,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

	createSettingsTable := `
	CREATE TABLE IF NOT EXISTS Settings (
		id VARCHAR(32) NOT NULL PRIMARY KEY,
		markupPercent DECIMAL(6,3) NOT NULL,
		feeTable JSON,
		businessName VARCHAR(150) NOT NULL,
		businessPhone VARCHAR(30),
		paymentQR TEXT,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

	createAuditLogTable := `
	CREATE TABLE IF NOT EXISTS AuditLog (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		orderId VARCHAR(64) NOT NULL,
		variant VARCHAR(10) NOT NULL,
		fromStatus VARCHAR(20) NOT NULL,
		toStatus VARCHAR(20) NOT NULL,
		actor VARCHAR(100) NOT NULL,
		note TEXT,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_order (orderId)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"Orders", createOrdersTable},
		{"OrderItems", createOrderItemsTable},
		{"Products", createProductsTable},
		{"Settings", createSettingsTable},
		{"AuditLog", createAuditLogTable},
	}

	for _, tbl := range tables {
		_, err := db.Exec(tbl.query)
		if err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
