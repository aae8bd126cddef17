package logging

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/samber/lo"
	"go.uber.org/zap/zapcore"
)

// testTimeFormat is the timestamp layout of lines written to a test's log.
const testTimeFormat = "15:04:05.000"

type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender that writes through tb.Log, so output is attached to the
// test that produced it and only shown when that test fails or runs verbosely.
func NewTestAppender(tb testing.TB) Appender {
	return &testAppender{tb}
}

// Write renders "time LEVEL logger caller message key=value ..." to the test log. Fields are
// sorted by key.
func (tapp *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	var sb strings.Builder
	sb.WriteString(entry.Time.Format(testTimeFormat))
	sb.WriteString(" " + entry.Level.CapitalString())
	if entry.LoggerName != "" {
		sb.WriteString(" " + entry.LoggerName)
	}
	if entry.Caller.Defined {
		sb.WriteString(" " + entry.Caller.TrimmedPath())
	}
	sb.WriteString(" " + entry.Message)

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	keys := lo.Keys(enc.Fields)
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, enc.Fields[k]) //nolint:errcheck
	}
	tapp.tb.Log(sb.String())
	return nil
}

func (tapp *testAppender) Sync() error {
	return nil
}
