package observability

// GlobalLogger is the logger used by components built without one
var GlobalLogger Logger

// Initialize the global logger with default configuration
func init() {
	GlobalLogger = NewLogger()
}

// SetGlobalLogger sets the global logger
func SetGlobalLogger(logger Logger) {
	GlobalLogger = logger
}
