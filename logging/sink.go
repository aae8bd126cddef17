package logging

// LogMsg forwards a message from sender to logger at the given level. It reports whether the
// message passed the logger's level filter. A nil logger falls back to the global logger.
func LogMsg(logger Logger, level Level, msg, sender string, keysAndValues ...interface{}) bool {
	if logger == nil {
		logger = Global()
	}
	if level < logger.GetLevel() {
		return false
	}
	kvs := append([]interface{}{"sender", sender}, keysAndValues...)
	switch level {
	case DEBUG:
		logger.Debugw(msg, kvs...)
	case INFO:
		logger.Infow(msg, kvs...)
	case WARN:
		logger.Warnw(msg, kvs...)
	case ERROR:
		logger.Errorw(msg, kvs...)
	default:
		return false
	}
	return true
}
