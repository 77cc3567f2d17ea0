package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal/auth"
	"github.com/frahmantamala/restaurant-ops/internal/employee"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with operator accounts, permissions and a sample staff roster for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		ctx := context.Background()
		s := &seeder{db: db.SQL, bcryptCost: cfg.Security.BCryptCost, now: time.Now().UTC()}

		if clearData {
			if err := s.clear(ctx); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := s.seed(ctx); err != nil {
			log.Fatalf("failed to seed: %v", err)
		}
	},
}

var permissionDescriptions = map[string]string{
	auth.PermissionAdmin:           "full administrator",
	auth.PermissionManageSchedule:  "Can create and cancel shifts",
	auth.PermissionApproveTimeOff:  "Can approve or deny time off requests",
	auth.PermissionManageEmployees: "Can add, edit and remove employees",
}

type seedUser struct {
	Email       string
	Name        string
	Permissions []string
}

var seedUsers = []seedUser{
	{Email: "manager@restaurant.local", Name: "Floor Manager", Permissions: []string{auth.PermissionAdmin}},
	{Email: "scheduler@restaurant.local", Name: "Shift Scheduler", Permissions: []string{auth.PermissionManageSchedule}},
}

type seedEmployee struct {
	FirstName, LastName, Email, Role, HireDate string
}

var seedEmployees = []seedEmployee{
	{"Ana", "Lopez", "ana.lopez@restaurant.local", employee.RoleCook, "2022-03-01"},
	{"Ben", "Carter", "ben.carter@restaurant.local", employee.RoleServer, "2023-06-15"},
	{"Chloe", "Nguyen", "chloe.nguyen@restaurant.local", employee.RoleHost, "2023-09-01"},
	{"Dev", "Patel", "dev.patel@restaurant.local", employee.RoleBartender, "2021-11-20"},
	{"Eli", "Brooks", "", employee.RoleDishwasher, "2024-01-08"},
}

const seedPassword = "password"

type seeder struct {
	db         *sqlx.DB
	bcryptCost int
	now        time.Time
}

func (s *seeder) seed(ctx context.Context) error {
	for _, name := range auth.Permissions {
		if err := s.ensurePermission(ctx, name, permissionDescriptions[name]); err != nil {
			return err
		}
	}

	hash, err := auth.HashPassword(seedPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	for _, u := range seedUsers {
		userID, err := s.ensureUser(ctx, u, hash)
		if err != nil {
			return err
		}
		for _, perm := range u.Permissions {
			if err := s.grant(ctx, userID, perm); err != nil {
				return err
			}
		}
		fmt.Printf("Seeded user %s with %v\n", u.Email, u.Permissions)
	}

	for _, e := range seedEmployees {
		if err := s.ensureEmployee(ctx, e); err != nil {
			return err
		}
	}
	fmt.Printf("Seeded %d employees\n", len(seedEmployees))

	return nil
}

func (s *seeder) ensurePermission(ctx context.Context, name, description string) error {
	var id int64
	err := s.db.GetContext(ctx, &id, s.db.Rebind("SELECT id FROM permissions WHERE name = ?"), name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup permission %s: %w", name, err)
	}
	if _, err := s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, ?)"),
		name, description, s.now); err != nil {
		return fmt.Errorf("insert permission %s: %w", name, err)
	}
	return nil
}

func (s *seeder) ensureUser(ctx context.Context, u seedUser, hash string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, s.db.Rebind("SELECT id FROM users WHERE email = ?"), u.Email)
	if err == nil {
		fmt.Println("user already exists; will ensure permissions:", u.Email)
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup user %s: %w", u.Email, err)
	}

	if _, err := s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"),
		u.Email, u.Name, hash, true, s.now, s.now); err != nil {
		return 0, fmt.Errorf("insert user %s: %w", u.Email, err)
	}
	if err := s.db.GetContext(ctx, &id, s.db.Rebind("SELECT id FROM users WHERE email = ?"), u.Email); err != nil {
		return 0, fmt.Errorf("lookup user %s after insert: %w", u.Email, err)
	}
	return id, nil
}

func (s *seeder) grant(ctx context.Context, userID int64, permission string) error {
	var permissionID int64
	if err := s.db.GetContext(ctx, &permissionID, s.db.Rebind("SELECT id FROM permissions WHERE name = ?"), permission); err != nil {
		return fmt.Errorf("permission not found %s: %w", permission, err)
	}

	var exists int
	err := s.db.GetContext(ctx, &exists,
		s.db.Rebind("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?"), userID, permissionID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup grant %s: %w", permission, err)
	}

	if _, err := s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at) VALUES (?, ?, NULL, ?)"),
		userID, permissionID, s.now); err != nil {
		return fmt.Errorf("grant %s to user %d: %w", permission, userID, err)
	}
	return nil
}

func (s *seeder) ensureEmployee(ctx context.Context, e seedEmployee) error {
	hireDate, err := time.Parse("2006-01-02", e.HireDate)
	if err != nil {
		return fmt.Errorf("parse hire date for %s %s: %w", e.FirstName, e.LastName, err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count,
		s.db.Rebind("SELECT COUNT(*) FROM employees WHERE first_name = ? AND last_name = ?"), e.FirstName, e.LastName); err != nil {
		return fmt.Errorf("lookup employee %s %s: %w", e.FirstName, e.LastName, err)
	}
	if count > 0 {
		return nil
	}

	var email *string
	if e.Email != "" {
		email = &e.Email
	}
	if _, err := s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO employees (first_name, last_name, email, role, hire_date, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"),
		e.FirstName, e.LastName, email, e.Role, hireDate, true, s.now, s.now); err != nil {
		return fmt.Errorf("insert employee %s %s: %w", e.FirstName, e.LastName, err)
	}
	return nil
}

// clear removes seeded and user-created rows, children first.
func (s *seeder) clear(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"user_permissions", "permissions", "users", "time_off_requests", "shifts", "employees"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
