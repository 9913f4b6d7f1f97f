package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/logger"
)

func TestLogger(t *testing.T) {
	type testCase struct {
		name             string
		cfg              logger.Log
		shouldHaveOutPut bool
		outPutIsJSON     bool
	}

	testCases := []testCase{
		{
			name: "no logger enabled log level not set",
			cfg: logger.Log{
				LogLevel:    "",
				ServiceName: "test",
				AppName:     "test",
			},
			shouldHaveOutPut: false,
		},
		{
			name: "console enabled log level info",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true},
			},
			shouldHaveOutPut: true,
		},
		{
			name: "console enabled console writer enabled",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
			shouldHaveOutPut: true,
		},
		{
			name: "console enabled console writer enabled trace",
			cfg: logger.Log{
				LogLevel:    "trace",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
			shouldHaveOutPut: true,
		},
		{
			name: "console enabled console writer disabled info expect json",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: false},
			},
			shouldHaveOutPut: true,
			outPutIsJSON:     true,
		},
		{
			name: "console enabled console writer disabled trace expect json stack",
			cfg: logger.Log{
				LogLevel:     "trace",
				ServiceName:  "test",
				AppName:      "test",
				ReportCaller: true,
				Console:      logger.Console{Enabled: true, UseConsoleWriter: false},
			},
			shouldHaveOutPut: true,
			outPutIsJSON:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := testLoggerConfig(t, tc.cfg)
			t.Logf("out: %s", out)

			switch {
			case out == "" && tc.shouldHaveOutPut:
				t.Errorf("expected no console output but got: %s", out)
			case tc.outPutIsJSON:
				// split lines
				outSplit := strings.Split(out, "\n")
				// try to decode
				type Foo struct { //nolint:musttag
					Type    string
					Level   string
					Test    string
					Message string
				}

				dummy := Foo{}

				for _, outLine := range outSplit {
					if outLine != "" {
						if err := json.Unmarshal([]byte(outLine), &dummy); err != nil {
							t.Errorf("expected json output but got: %s", out) //nolint:goerr113
						} else {
							t.Log(dummy)
						}
					}
				}
			}
		})
	}
}

func alwaysErrFunc() error {
	return errors.New("a test error") //nolint:goerr113
}

func testLoggerConfig(t *testing.T, cfg logger.Log) string {
	t.Helper()
	// keep default std out
	stdout := os.Stdout
	stderr := os.Stderr

	// capture stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	err := logger.Init(cfg)
	if err != nil {
		t.Error(err)
	}

	log.Info().Msg("this info message should be seen...")
	log.Error().Err(alwaysErrFunc()).Msg("this err message should be seen...")
	log.Trace().Err(alwaysErrFunc()).Msg("this trace message should be seen...")

	outC := make(chan string)
	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer
		_, err = io.Copy(&buf, r)
		if err != nil {
			t.Error(err)
		}
		outC <- buf.String()
	}()

	// back to normal state
	_ = w.Close()
	os.Stdout = stdout // restoring the real stdout
	os.Stderr = stderr // restoring the real stderr
	out := <-outC

	return out
}

func TestLevelWriterSplitsByLevel(t *testing.T) {
	var info, warn, errs, trace bytes.Buffer

	lw := &logger.LevelWriter{InfoWriter: &info, WarnWriter: &warn, ErrorWriter: &errs, TraceWriter: &trace}
	l := zerolog.New(lw).Level(zerolog.TraceLevel)

	l.Debug().Msg("debug")
	l.Info().Msg("info")
	l.Warn().Msg("warn")
	l.Error().Msg("error")
	l.Trace().Msg("trace")

	if strings.Count(info.String(), "\n") != 2 {
		t.Errorf("expected debug and info in info writer, got: %s", info.String())
	}

	for name, buf := range map[string]*bytes.Buffer{"warn": &warn, "error": &errs, "trace": &trace} {
		if !strings.Contains(buf.String(), `"message":"`+name+`"`) {
			t.Errorf("expected %s message in its writer, got: %s", name, buf.String())
		}
	}
}

func TestLevelWriterWithoutTarget(t *testing.T) {
	lw := &logger.LevelWriter{}

	n, err := lw.WriteLevel(zerolog.InfoLevel, []byte("dropped"))
	if err != nil || n != len("dropped") {
		t.Errorf("expected silent drop, got n=%d err=%v", n, err)
	}
}

func TestInitValidation(t *testing.T) {
	if err := logger.Init(logger.Log{LogLevel: "loud", ServiceName: "s", AppName: "a"}); err == nil {
		t.Error("expected unsupported level error")
	}

	if err := logger.Init(logger.Log{LogLevel: "info", AppName: "a"}); !errors.Is(err, logger.ErrServiceNameIsEmpty) {
		t.Errorf("expected ErrServiceNameIsEmpty, got %v", err)
	}

	if err := logger.Init(logger.Log{LogLevel: "info", ServiceName: "s"}); !errors.Is(err, logger.ErrAppNameIsEmpty) {
		t.Errorf("expected ErrAppNameIsEmpty, got %v", err)
	}
}
