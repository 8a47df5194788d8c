/*
Package log provides structured logging for the KSM client using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers and configurable log levels. The package
installs a default stderr JSON logger at import time so SDK users who never
call Init still see warnings (loose config permissions, server warnings,
dropped records).

# Usage

Initializing the logger:

	import "github.com/cuemby/ksm/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stderr,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Component loggers:

	transportLog := log.WithComponent("transport")
	transportLog.Debug().Str("path", "get_secret").Msg("posting query")

	log.Logger.Error().
		Err(err).
		Str("record_uid", uid).
		Msg("failed to decrypt record, skipping")

# What gets logged where

  - WARN: server `warnings` array entries, loose config file permissions,
    offline cache fallback in use
  - ERROR: records or folders dropped from a response because they failed
    to decrypt or parse, delete results with a non-ok response code
  - DEBUG: individual transport calls, key rotation retries, binding
    transitions

Secret material (keys, decrypted record data, tokens) is never logged at
any level.
*/
package log
