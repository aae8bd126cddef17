package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := NewBlankLogger("impl")
	logger.AddAppender(NewWriterAppender(notStdout))

	logger.Info("impl logs")
	output, err := notStdout.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	parts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	test.That(t, len(parts), test.ShouldBeGreaterThanOrEqualTo, 4)
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "impl")
	test.That(t, parts[len(parts)-1], test.ShouldEqual, "impl logs")

	logger.Infow("with fields", "frame", "world")
	output, err = notStdout.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	test.That(t, output, test.ShouldContainSubstring, `{"frame": "world"}`)
}

func TestLevelFiltering(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warnf("kept %d", 1)
	logger.Errorw("kept", "n", 2)

	test.That(t, observed.Len(), test.ShouldEqual, 2)
	test.That(t, observed.All()[0].Level, test.ShouldEqual, zapcore.WarnLevel)
	test.That(t, observed.All()[0].Message, test.ShouldEqual, "kept 1")
	test.That(t, observed.All()[1].ContextMap()["n"], test.ShouldEqual, int64(2))
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("tree").Sublogger("frame")
	sub.Warn("hello")
	test.That(t, observed.Len(), test.ShouldEqual, 1)
	test.That(t, observed.All()[0].LoggerName, test.ShouldEqual, "tree.frame")
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.out)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLogMsg(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(INFO)

	test.That(t, LogMsg(logger, DEBUG, "quiet", "tester"), test.ShouldBeFalse)
	test.That(t, LogMsg(logger, WARN, "loud", "tester", "frame", "a"), test.ShouldBeTrue)
	test.That(t, observed.Len(), test.ShouldEqual, 1)
	fields := observed.All()[0].ContextMap()
	test.That(t, fields["sender"], test.ShouldEqual, "tester")
	test.That(t, fields["frame"], test.ShouldEqual, "a")
}

func TestGlobal(t *testing.T) {
	orig := Global()
	defer ReplaceGlobal(orig)

	logger, observed := NewObservedTestLogger(t)
	ReplaceGlobal(logger)
	test.That(t, LogMsg(nil, WARN, "via global", "tester"), test.ShouldBeTrue)
	test.That(t, observed.FilterMessage("via global").Len(), test.ShouldEqual, 1)
}

func TestUnpairedKey(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Infow("odd", "frame", "a", "dangling")
	fields := observed.All()[0].ContextMap()
	test.That(t, fields["frame"], test.ShouldEqual, "a")
	test.That(t, fields["dangling"], test.ShouldEqual, "unpaired log key")
}
