package config

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied once at startup; repositories assume these columns exist.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	phone VARCHAR(20) NOT NULL,
	email VARCHAR(255) NULL,
	address VARCHAR(500) NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_customer_phone (phone)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS admins (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(100) NOT NULL,
	full_name VARCHAR(255) NULL,
	email VARCHAR(255) NULL,
	password_hash VARCHAR(255) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_admin_username (username)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS staff_users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(100) NOT NULL,
	full_name VARCHAR(255) NULL,
	email VARCHAR(255) NULL,
	password_hash VARCHAR(255) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_staff_username (username)
) ENGINE=InnoDB AUTO_INCREMENT=100000 DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	customer_id BIGINT NOT NULL,
	user_id BIGINT NULL,
	service VARCHAR(20) NOT NULL,
	from_location VARCHAR(255) NOT NULL,
	to_location VARCHAR(255) NOT NULL,
	travel_date DATE NULL,
	booking_date DATE NULL,
	passengers INT NOT NULL DEFAULT 1,
	train_number VARCHAR(50) NULL,
	train_name VARCHAR(255) NULL,
	travel_class VARCHAR(50) NULL,
	departure_time VARCHAR(20) NULL,
	arrival_time VARCHAR(20) NULL,
	duration VARCHAR(50) NULL,
	fare_per_person DECIMAL(12,2) NULL,
	total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
	paid_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
	pending_amount DECIMAL(12,2) NULL,
	payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	status VARCHAR(50) NOT NULL,
	notes TEXT NULL,
	ticket_pdf_url VARCHAR(1024) NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	KEY idx_booking_status (status),
	KEY idx_booking_user (user_id),
	KEY idx_booking_created (created_at),
	CONSTRAINT fk_booking_customer FOREIGN KEY (customer_id) REFERENCES customers(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS booking_passengers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	position INT NOT NULL,
	name VARCHAR(255) NOT NULL,
	age INT NOT NULL,
	gender VARCHAR(10) NOT NULL,
	UNIQUE KEY uniq_booking_position (booking_id, position),
	CONSTRAINT fk_passenger_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

// Migrate creates every table the engine needs. Safe to run on each start.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db not available")
	}
	for i, ddl := range schema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
