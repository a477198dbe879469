package cliconfig

// MergeConfig merges source config into target, updating sources tracking.
// Non-zero values from source are applied; zero values only when the key
// was explicitly present in a loaded file (SetFields).
func MergeConfig(target, source *Config, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	set := func(key string, nonZero bool) bool {
		if nonZero || source.SetFields[key] {
			target.Sources[key] = sourceType
			return true
		}
		return false
	}

	if set("host", source.Host != "") {
		target.Host = source.Host
	}
	if set("port", source.Port != 0) {
		target.Port = source.Port
	}
	if set("path", source.Path != "") {
		target.Path = source.Path
	}
	if set("logLevel", source.LogLevel != "") {
		target.LogLevel = source.LogLevel
	}
	if set("logFormat", source.LogFormat != "") {
		target.LogFormat = source.LogFormat
	}
	if set("logFile", source.LogFile != "") {
		target.LogFile = source.LogFile
	}
	if set("maxMessageSize", source.MaxMessageSize != 0) {
		target.MaxMessageSize = source.MaxMessageSize
	}
	if set("maxConnections", source.MaxConnections != 0) {
		target.MaxConnections = source.MaxConnections
	}
	if set("idleTimeout", source.IdleTimeout != 0) {
		target.IdleTimeout = source.IdleTimeout
	}
	if set("heartbeatInterval", source.HeartbeatInterval != 0) {
		target.HeartbeatInterval = source.HeartbeatInterval
	}
	if set("heartbeatTimeout", source.HeartbeatTimeout != 0) {
		target.HeartbeatTimeout = source.HeartbeatTimeout
	}
	if set("shutdownTimeout", source.ShutdownTimeout != 0) {
		target.ShutdownTimeout = source.ShutdownTimeout
	}
	if set("binaryMode", source.BinaryMode != "") {
		target.BinaryMode = source.BinaryMode
	}
	if set("allowedOrigins", len(source.AllowedOrigins) > 0) {
		target.AllowedOrigins = append([]string(nil), source.AllowedOrigins...)
	}
}
