// Package logger provides a structured logging interface for twscraper.
//
// It wraps zerolog with a small interface so components can take a Logger
// in their constructors and tests can swap in NewTestLogger or NewNopLogger.
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("handle", "nasa")
//	log.InfoWithFields("Collection started", map[string]interface{}{
//	    "page_size": 200,
//	})
package logger
