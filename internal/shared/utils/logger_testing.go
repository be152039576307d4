package utils

// ResetLoggerForTests drops the sink for the provided category.
// It should only be used inside tests to ensure clean log files per run.
func ResetLoggerForTests(category LogCategory) {
	sinksMu.Lock()
	defer sinksMu.Unlock()
	if s, ok := sinks[category]; ok {
		s.mu.Lock()
		if s.file != nil {
			s.file.Close()
		}
		s.mu.Unlock()
		delete(sinks, category)
	}
}
