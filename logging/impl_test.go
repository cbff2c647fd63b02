package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestLevelFiltering(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(WARN)

	logger.Debugw("debug", "k", 1)
	logger.Infof("info %d", 2)
	logger.Warn("warn")
	logger.Errorw("error", "k", 3)

	test.That(t, observed.Len(), test.ShouldEqual, 2)
	test.That(t, observed.FilterMessage("warn").Len(), test.ShouldEqual, 1)
	test.That(t, observed.FilterMessage("error").Len(), test.ShouldEqual, 1)
	test.That(t, observed.FilterMessage("error").All()[0].ContextMap()["k"], test.ShouldEqual, int64(3))
}

func TestDebugModeContext(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(ERROR)

	logger.CDebugw(context.Background(), "dropped")
	test.That(t, observed.Len(), test.ShouldEqual, 0)

	ctx := EnableDebugMode(context.Background(), "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, GetName(ctx), test.ShouldHaveLength, 6)

	logger.CDebugw(ctx, "kept", "cycle", 7)
	test.That(t, observed.FilterMessage("kept").Len(), test.ShouldEqual, 1)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("updater").Sublogger("publisher")
	sub.Info("hello")

	test.That(t, observed.Len(), test.ShouldEqual, 1)
	test.That(t, observed.All()[0].LoggerName, test.ShouldEqual, "updater.publisher")

	// Subloggers copy the level at creation and are adjusted independently.
	sub.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
}

func TestUnpairedKey(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Infow("msg", "lonely")

	test.That(t, observed.Len(), test.ShouldEqual, 1)
	test.That(t, observed.All()[0].ContextMap()["lonely"], test.ShouldNotBeNil)
}

func TestLevelParsing(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)

	out, err := json.Marshal(ERROR)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"error"`)
}

func TestConstructorsLevels(t *testing.T) {
	test.That(t, NewLogger("a").GetLevel(), test.ShouldEqual, INFO)
	test.That(t, NewDebugLogger("b").GetLevel(), test.ShouldEqual, DEBUG)

	// A blank logger has no outputs until one is added.
	blank := NewBlankLogger("c")
	blank.Info("nowhere")
	test.That(t, blank.Sync(), test.ShouldBeNil)
	blank.AddAppender(NewTestAppender(t))
	blank.Infow("somewhere", "k", 1)
}

func TestFileAppender(t *testing.T) {
	file := filepath.Join(t.TempDir(), "updater.log")
	appender, closer := NewFileAppender(file)

	logger := NewBlankLogger("replay")
	logger.AddAppender(appender)
	logger.Sublogger("updater").Warnw("path message rejected", "at", 3)
	test.That(t, closer.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(file)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "replay.updater")
	test.That(t, string(contents), test.ShouldContainSubstring, "path message rejected")
}
