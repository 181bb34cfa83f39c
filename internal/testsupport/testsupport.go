// Package testsupport provides shared helpers for package tests:
// in-memory databases, fixture users and sites, and event builders.
package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal"
	"sitepulse/internal/config"
	"sitepulse/internal/pkg/geoip"
	"sitepulse/internal/events"
	"sitepulse/internal/rules"
	"sitepulse/internal/settings"
	"sitepulse/internal/sites"
	"sitepulse/internal/tech"
	"sitepulse/internal/users"
	"sitepulse/internal/visitors"
	"sitepulse/internal/watermark"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with sitepulse's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns all sitepulse models for migration
func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&sites.Site{},
		&sites.AccessGrant{},
		&visitors.Visitor{},
		&events.Event{},
		&tech.TechSnapshot{},
		&rules.TrackingRule{},
		&watermark.Watermark{},
		&settings.Setting{},
		&users.User{},
	}
}

// SetupTestDB creates a test database with all sitepulse models migrated.
// Uses a named in-memory database with cache=shared so multiple
// connections within a test share the same database. Cached by root
// test name so setup helpers called from subtests reuse it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set SITEPULSE_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// SetupTestDBManagerWithSite creates a test database manager with a
// registered site.
func SetupTestDBManagerWithSite(t *testing.T, domain string) (*TestDBManager, *slog.Logger, *sites.Site) {
	dbManager, logger := SetupTestDBManager(t)
	site := CreateTestSite(t, dbManager.GetConnection(), domain)
	return dbManager, logger, site
}

// CreateMinimalTestApp builds a fiber app with all application routes
// mounted against the given test database. Geo lookups are disabled.
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	geo := geoip.NewResolver(GetLogger(), "")
	internal.MountAppRoutes(geo)(srv)
	return srv.App()
}

// CreateTestUser creates a test user with a hashed password and API key
func CreateTestUser(t *testing.T, db *gorm.DB, email string) *users.User {
	t.Helper()

	var existing users.User
	if db.Where("email = ?", email).First(&existing).Error == nil {
		return &existing
	}

	user, err := users.CreateUser(db, email, "test-password")
	require.NoError(t, err)
	return user
}

// CreateTestSite registers a test site owned by a fixture user
func CreateTestSite(t *testing.T, db *gorm.DB, domain string) *sites.Site {
	t.Helper()

	owner := CreateTestUser(t, db, "owner@"+domain)
	site, err := sites.CreateSite(db, owner.ID, domain, domain)
	require.NoError(t, err)
	return site
}

// CollectTestEvent ingests one event through the full collect path
func CollectTestEvent(t *testing.T, dbManager cartridge.DBManager, logger *slog.Logger, input *events.CollectEventInput) *events.Event {
	t.Helper()

	event, err := events.CollectEvent(dbManager, logger, input)
	require.NoError(t, err)
	return event
}

// InsertEvent inserts an event row directly, bypassing validation, for
// aggregation tests that need precise timestamps.
func InsertEvent(t *testing.T, db *gorm.DB, siteID, visitorID, eventType, pageURL, referrer string, at time.Time) *events.Event {
	t.Helper()

	if eventType == "" {
		eventType = events.EventTypePageView
	}
	event := &events.Event{
		SiteID:    siteID,
		VisitorID: visitorID,
		EventType: eventType,
		PageURL:   pageURL,
		Referrer:  referrer,
		UserAgent: "Mozilla/5.0 Test Browser",
		CreatedAt: at.UTC(),
	}
	require.NoError(t, db.Create(event).Error)
	require.NoError(t, visitors.Upsert(db, siteID, visitorID, at.UTC()))
	return event
}

// InsertScrollEvent inserts a scroll event with the given depth.
func InsertScrollEvent(t *testing.T, db *gorm.DB, siteID, visitorID, pageURL string, percent int, at time.Time) *events.Event {
	t.Helper()

	event := &events.Event{
		SiteID:        siteID,
		VisitorID:     visitorID,
		EventType:     events.EventTypeScroll,
		PageURL:       pageURL,
		UserAgent:     "Mozilla/5.0 Test Browser",
		ScrollPercent: &percent,
		CreatedAt:     at.UTC(),
	}
	require.NoError(t, db.Create(event).Error)
	require.NoError(t, visitors.Upsert(db, siteID, visitorID, at.UTC()))
	return event
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	var tables []string
	for _, name := range tableNames {
		if name != "migrations" && name != "schema_migrations" {
			tables = append(tables, name)
		}
	}

	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}
