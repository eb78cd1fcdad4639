// test/helpers/helpers.go
package helpers

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/consum-be/internal/adapters/db"
	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
	"github.com/ammerola/consum-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// schema mirrors the production tables the repositories read and write
var schema = []string{
	`CREATE TABLE IF NOT EXISTS cons_orders (
		cons_id      SERIAL PRIMARY KEY,
		order_state  INTEGER,
		income_date  TIMESTAMP,
		account_num  VARCHAR(50),
		account_date TIMESTAMP,
		by_self      BOOLEAN,
		has_trust    BOOLEAN,
		seller_id    INTEGER,
		trust_num    INTEGER,
		trust_ser    VARCHAR(20),
		comment      TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS cons_cats (
		cat_id        SERIAL PRIMARY KEY,
		parent_id     INTEGER REFERENCES cons_cats (cat_id),
		cat_name      VARCHAR(255),
		cat_unit_code INTEGER,
		code          INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS cons_suppliers (
		supplier_id   SERIAL PRIMARY KEY,
		supplier_name VARCHAR(255),
		inn           TEXT,
		address       TEXT,
		phone         VARCHAR(50),
		comment       TEXT
	)`,
	`CREATE OR REPLACE FUNCTION up_new_account(
		p_account_num  VARCHAR,
		p_account_date TIMESTAMP,
		p_income_date  TIMESTAMP,
		p_has_trust    BOOLEAN,
		p_trust_ser    VARCHAR,
		p_trust_num    INTEGER,
		p_seller_id    INTEGER,
		p_by_self      BOOLEAN,
		p_comment      TEXT
	) RETURNS INTEGER AS $$
	DECLARE
		new_id INTEGER;
	BEGIN
		INSERT INTO cons_orders (
			order_state, income_date, account_num, account_date, by_self,
			has_trust, seller_id, trust_num, trust_ser, comment
		) VALUES (
			1, p_income_date, p_account_num, p_account_date, p_by_self,
			p_has_trust, p_seller_id, p_trust_num, p_trust_ser, p_comment
		) RETURNING cons_id INTO new_id;
		RETURN new_id;
	END;
	$$ LANGUAGE plpgsql`,
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t testing.TB) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_consum",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_consum",
		SSLMode:            "disable",
		MaxConnections:     5,
		AcquireTimeout:     5 * time.Second,
		ConnectTimeout:     10 * time.Second,
		HealthCheckTimeout: 2 * time.Second,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    30 * time.Minute,
		TestOnCheckout:     true,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for database to be ready
	var database *db.Database
	err = pool.Retry(func() error {
		var err error
		database, err = db.NewDatabase(context.Background(), dbConfig, TestLogger())
		return err
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	ApplySchema(t, database)

	return &TestDB{
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// ApplySchema creates the tables and the order registration function
func ApplySchema(t testing.TB, pool ports.ConnectionPool) {
	t.Helper()

	err := pool.WithConn(context.Background(), func(q ports.Querier) error {
		for _, stmt := range schema {
			if _, err := q.Exec(context.Background(), stmt); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err, "Could not apply schema")
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t testing.TB, pool ports.ConnectionPool) {
	t.Helper()

	err := pool.WithConn(context.Background(), func(q ports.Querier) error {
		_, err := q.Exec(context.Background(),
			`TRUNCATE TABLE cons_orders, cons_cats, cons_suppliers RESTART IDENTITY CASCADE`)
		return err
	})
	require.NoError(t, err, "Failed to truncate tables")
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_consum",
			SSLMode:            "disable",
			MaxConnections:     10,
			AcquireTimeout:     5 * time.Second,
			ConnectTimeout:     5 * time.Second,
			HealthCheckTimeout: time.Second,
			TestOnCheckout:     true,
			StatementCacheMode: "describe",
			OrdersListLimit:    100,
		},
		Secrets: config.SecretsConfig{
			Provider: "env",
		},
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret",
			JWTExpiration:     24 * time.Hour,
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
		},
		Server: config.ServerConfig{
			Host:           "localhost",
			Port:           "3030",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
	}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// NewCreateOrder builds a valid order payload
func NewCreateOrder(overrides ...func(*domain.CreateOrder)) domain.CreateOrder {
	in := domain.CreateOrder{
		IncomeDate:  domain.NewDateTime(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)),
		AccountNum:  Ptr("A-1001"),
		AccountDate: domain.NewDateTime(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)),
		BySelf:      Ptr(false),
		HasTrust:    Ptr(true),
		SellerID:    7,
		TrustNum:    Ptr[int32](42),
		TrustSer:    Ptr("AB"),
		Comment:     Ptr("first delivery"),
	}

	for _, override := range overrides {
		override(&in)
	}

	return in
}

// NewCreateCategory builds a valid category payload
func NewCreateCategory(overrides ...func(*domain.CreateCategory)) domain.CreateCategory {
	in := domain.CreateCategory{
		CatName:     Ptr("Fruit"),
		CatUnitCode: 1,
		Code:        100,
	}

	for _, override := range overrides {
		override(&in)
	}

	return in
}

// NewCreateSupplier builds a valid supplier payload
func NewCreateSupplier(overrides ...func(*domain.CreateSupplier)) domain.CreateSupplier {
	in := domain.CreateSupplier{
		SupplierName: "Acme Farms",
		INN:          Ptr("7701234567"),
		Address:      Ptr("1 Orchard Lane"),
		Phone:        Ptr("+7 495 000-00-00"),
	}

	for _, override := range overrides {
		override(&in)
	}

	return in
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// MustJSON fails the test when v cannot be encoded
func MustJSON(t testing.TB, v any) string {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
