package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adnan-tnd/flow-core/internal/auth"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/pkg/config"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const TestPassword = "testpassword123"

// SetupTestDB opens a private in-memory SQLite database and migrates every model.
// The named shared-cache DSN lets the pool hand out several connections to the
// same database; each test gets its own name.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CreateTestUser creates a user with the given role and TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	short := uuid.New().String()[:8]
	user := &models.User{
		Name:         string(role) + "-" + short,
		Email:        "test-" + short + "@example.com",
		PasswordHash: hash,
		Role:         role,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour, 24*time.Hour)
}

// GenerateTestToken issues a session token for user.
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// TestConfig mirrors config.Load defaults without touching the environment.
func TestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test"},
		JWT:    config.JWTConfig{Secret: "test-secret-key-for-testing", ExpiryHours: 24, ResetExpiryHours: 24},
		App:    config.AppConfig{BaseURL: "http://app.test"},
		Mail:   config.MailConfig{Driver: "log"},
		Storage: config.StorageConfig{
			Driver:       "s3",
			MaxFiles:     3,
			MaxFileBytes: 1024,
		},
		Policy: config.PolicyConfig{
			CardNumbering: config.CardNumberingReadModifyWrite,
		},
		Leave: config.LeaveConfig{AutoApproveMaxDays: 2, AutoApproveCapDays: 20},
		Attendance: config.AttendanceConfig{
			AbsentSweepCron: "55 23 * * *",
		},
	}
}

// AuthenticatedRequest builds a JSON request with a bearer token.
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// ParseJSONResponse parses the response body into v.
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies. User is a CEO.
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Config     *config.Config
	Mail       *RecordingDispatcher
	Store      *MemoryStore
	User       *models.User
	Token      string
}

// NewTestContext creates a DB, a CEO user with a token, a mail recorder and
// an in-memory object store.
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	user := CreateTestUser(t, db, models.RoleCEO)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Config:     TestConfig(),
		Mail:       &RecordingDispatcher{},
		Store:      NewMemoryStore(),
		User:       user,
		Token:      GenerateTestToken(t, jwtService, user),
	}
}

// NewUser creates another user with role and returns it with a session token.
func (ts *TestSetup) NewUser(t *testing.T, role models.Role) (*models.User, string) {
	t.Helper()
	user := CreateTestUser(t, ts.DB, role)
	return user, GenerateTestToken(t, ts.JWTService, user)
}

// Cleanup is kept for callers that defer it; SetupTestDB already registers
// the close with t.Cleanup.
func (ts *TestSetup) Cleanup() {}
