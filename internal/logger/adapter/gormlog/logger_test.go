package gormlog_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/logger"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/logger/adapter/gormlog"
)

func TestTrace(t *testing.T) {
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	testCases := []struct {
		name    string
		cfg     logger.SQL
		mode    glogger.LogLevel
		begin   time.Time
		err     error
		contain string
	}{
		{name: "error", begin: time.Now(), err: errors.New("boom"), contain: `"message":"sql error"`},
		{name: "record not found is quiet", begin: time.Now(), err: gorm.ErrRecordNotFound},
		{
			name:    "slow",
			cfg:     logger.SQL{SlowThreshold: time.Millisecond},
			begin:   time.Now().Add(-time.Second),
			contain: `"message":"slow sql"`,
		},
		{name: "fast statement is quiet", cfg: logger.SQL{SlowThreshold: time.Hour}, begin: time.Now()},
		{name: "statements enabled", cfg: logger.SQL{Enabled: true}, begin: time.Now(), contain: `"sql":"SELECT 1"`},
		{name: "silent", mode: glogger.Silent, begin: time.Now(), err: errors.New("boom")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer

			var l glogger.Interface = gormlog.New(zerolog.New(&buf), tc.cfg)
			if tc.mode != 0 {
				l = l.LogMode(tc.mode)
			}

			l.Trace(context.Background(), tc.begin, stmt, tc.err)

			if tc.contain == "" {
				assert.Empty(t, buf.String())
				return
			}

			assert.Contains(t, buf.String(), tc.contain)
			assert.Contains(t, buf.String(), `"component":"gorm"`)
		})
	}
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer

	l := gormlog.New(zerolog.New(&buf), logger.SQL{})

	l.Info(context.Background(), "hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Warn(context.Background(), "shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	l.LogMode(glogger.Info).Info(context.Background(), "now %s", "visible")
	assert.Contains(t, buf.String(), "now visible")
}
