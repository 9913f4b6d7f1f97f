package keyvalue

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), models.GormConfig("iam_", logger.Discard))
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.KeyValue{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Create(&models.KeyValue{Key: "live", Value: []byte("v1")}).Error)
	require.NoError(t, db.Create(&models.KeyValue{Key: "expired", Value: []byte("v2"), ExpiresAt: &past}).Error)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		key           string
		expectedError error
		expectedValue []byte
	}{
		{name: "nil database", key: "live", expectedError: ErrDBNil},
		{name: "empty key", dbParam: db, expectedError: ErrKeyEmpty},
		{name: "missing key", dbParam: db, key: "nope", expectedError: ErrKeyNotFound},
		{name: "expired key", dbParam: db, key: "expired", expectedError: ErrKeyNotFound},
		{name: "successful get", dbParam: db, key: "live", expectedValue: []byte("v1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			val, err := Get(tc.dbParam, tc.key)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, val)
		})
	}
}

func TestSetReplaces(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Set(db, "k1", []byte("a"), 0))
	require.NoError(t, Set(db, "k1", []byte("b"), time.Hour))

	val, err := Get(db, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), val)

	var count int64
	require.NoError(t, db.Model(&models.KeyValue{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.ErrorIs(t, Set(nil, "k1", nil, 0), ErrDBNil)
	require.ErrorIs(t, Set(db, "", nil, 0), ErrKeyEmpty)
}

func TestDeleteResetPurge(t *testing.T) {
	db := setupTestDB(t)

	past := time.Now().Add(-time.Second)
	require.NoError(t, Set(db, "a", []byte("1"), 0))
	require.NoError(t, Set(db, "b", []byte("2"), 0))
	require.NoError(t, db.Create(&models.KeyValue{Key: "old", Value: []byte("3"), ExpiresAt: &past}).Error)

	n, err := Purge(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, Delete(db, "a"))
	require.NoError(t, Delete(db, "a"), "deleting a missing key is not an error")

	_, err = Get(db, "a")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, Reset(db))

	_, err = Get(db, "b")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStorage(t *testing.T) {
	s := NewStorage(setupTestDB(t), time.Hour)
	t.Cleanup(func() { _ = s.Close() })

	val, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("session-1", []byte(`{"user_id":1}`), time.Minute))

	val, err = s.Get("session-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":1}`, string(val))

	require.NoError(t, s.Set("", []byte("x"), 0))
	require.NoError(t, s.Delete("session-1"))

	val, err = s.Get("session-1")
	require.NoError(t, err)
	assert.Nil(t, val)
}
