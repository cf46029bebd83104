package migrations

import (
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID        int       `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var db *sql.DB

// Init sets the DB connection for migrations and queries
func Init(database *sql.DB) {
	db = database
}

// Migrate creates required tables if they do not exist
func Migrate() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	createUsers := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(191) NOT NULL UNIQUE,
		password VARCHAR(191) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'user',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createUsers); err != nil {
		return err
	}

	createClients := `
	CREATE TABLE IF NOT EXISTS clients (
		id INT AUTO_INCREMENT PRIMARY KEY,
		full_name VARCHAR(150) NOT NULL,
		phone VARCHAR(20) NOT NULL DEFAULT '',
		email VARCHAR(191) NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createClients); err != nil {
		return err
	}

	createPlans := `
	CREATE TABLE IF NOT EXISTS membership_plans (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		max_members INT NOT NULL DEFAULT 1,
		price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		duration_days INT NOT NULL DEFAULT 30
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createPlans); err != nil {
		return err
	}

	createContracts := `
	CREATE TABLE IF NOT EXISTS membership_contracts (
		id INT AUTO_INCREMENT PRIMARY KEY,
		client_id INT NOT NULL,
		plan_id INT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (client_id) REFERENCES clients(id),
		FOREIGN KEY (plan_id) REFERENCES membership_plans(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createContracts); err != nil {
		return err
	}

	createActive := `
	CREATE TABLE IF NOT EXISTS active_memberships (
		id INT AUTO_INCREMENT PRIMARY KEY,
		client_id INT NOT NULL,
		contract_id INT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		final_price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		status VARCHAR(20) NOT NULL DEFAULT 'Activa',
		qr_path VARCHAR(255) NOT NULL DEFAULT '',
		FOREIGN KEY (client_id) REFERENCES clients(id),
		FOREIGN KEY (contract_id) REFERENCES membership_contracts(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createActive); err != nil {
		return err
	}

	createFamily := `
	CREATE TABLE IF NOT EXISTS family_members (
		id INT AUTO_INCREMENT PRIMARY KEY,
		active_membership_id INT NOT NULL,
		full_name VARCHAR(150) NOT NULL,
		FOREIGN KEY (active_membership_id) REFERENCES active_memberships(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createFamily); err != nil {
		return err
	}

	createMethods := `
	CREATE TABLE IF NOT EXISTS payment_methods (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(50) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createMethods); err != nil {
		return err
	}

	createPayments := `
	CREATE TABLE IF NOT EXISTS payments (
		id INT AUTO_INCREMENT PRIMARY KEY,
		active_membership_id INT NOT NULL,
		payment_method_id INT NOT NULL,
		amount DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (active_membership_id) REFERENCES active_memberships(id),
		FOREIGN KEY (payment_method_id) REFERENCES payment_methods(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createPayments); err != nil {
		return err
	}

	createEntries := `
	CREATE TABLE IF NOT EXISTS entry_log (
		id INT AUTO_INCREMENT PRIMARY KEY,
		active_membership_id INT NOT NULL,
		access_area VARCHAR(100) NOT NULL DEFAULT 'General',
		entered_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (active_membership_id) REFERENCES active_memberships(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createEntries); err != nil {
		return err
	}

	createJobs := `
	CREATE TABLE IF NOT EXISTS job_queue (
		id INT AUTO_INCREMENT PRIMARY KEY,
		service VARCHAR(50) NOT NULL,
		payload JSON NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		attempts INT NOT NULL DEFAULT 0,
		last_attempt_at DATETIME NULL,
		error_message TEXT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_job_queue_status (status, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createJobs); err != nil {
		return err
	}
	return nil
}

// SeedDefaultUser inserts a default admin if it doesn't exist
func SeedDefaultUser() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", "admin@residencyclub.com").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("cambiar123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		_, err = db.Exec(
			"INSERT INTO users (first_name, last_name, email, password, role) VALUES (?, ?, ?, ?, ?)",
			"Admin", "Residency", "admin@residencyclub.com", string(hash), "super_admin",
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// SeedDefaultPlans inserts the base membership catalog if none exists
func SeedDefaultPlans() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM membership_plans").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO membership_plans (name, max_members, price, duration_days) VALUES ('Individual',1,500.00,30)`); err != nil {
			return err
		}
		if _, err := db.Exec(`INSERT INTO membership_plans (name, max_members, price, duration_days) VALUES ('Familiar',4,900.00,30)`); err != nil {
			return err
		}
		if _, err := db.Exec(`INSERT INTO membership_plans (name, max_members, price, duration_days) VALUES ('Individual Anual',1,5000.00,365)`); err != nil {
			return err
		}
	}
	return nil
}

// SeedPaymentMethods inserts the payment method catalog if none exists
func SeedPaymentMethods() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM payment_methods").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		for _, name := range []string{"Efectivo", "Tarjeta", "Transferencia"} {
			if _, err := db.Exec(`INSERT INTO payment_methods (name) VALUES (?)`, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetUserByEmail retrieves a user from DB by email
func GetUserByEmail(email string) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow("SELECT id, first_name, last_name, email, password, role, created_at, updated_at FROM users WHERE email = ? LIMIT 1", email)
	var u User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil
	}
	return &u
}

// GetUserByID retrieves a user by its ID
func GetUserByID(id int) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow("SELECT id, first_name, last_name, email, password, role, created_at, updated_at FROM users WHERE id = ? LIMIT 1", id)
	var u User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil
	}
	return &u
}

// CreateUser inserts a new user record with a bcrypt-hashed password
func CreateUser(firstName, lastName, email, password, role string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		"INSERT INTO users (first_name, last_name, email, password, role) VALUES (?, ?, ?, ?, ?)",
		firstName, lastName, email, string(hash), role,
	)
	return err
}

// UpdateUserPassword updates the password for the given user id
func UpdateUserPassword(id int, password string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec("UPDATE users SET password = ?, updated_at = NOW() WHERE id = ?", string(hash), id)
	return err
}

// EmailExists checks if a user with the given email exists
func EmailExists(email string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
