// Package logging provides structured logging configuration for the apollo
// CLI and its long-running components.
//
// The resolution engine (packages config, resolve and graphql) never logs;
// errors are returned to the caller. The schema fetcher, the project watcher
// and the CLI accept a *slog.Logger and log requests and reloads at debug
// level.
//
// # Usage
//
//	logger := logging.New(logging.FromEnv(logging.DefaultConfig()))
//	fetchLog := logging.WithComponent(logger, "fetch")
//	fetchLog.Debug("introspecting", "url", url)
//
// # Integration
//
// Components should accept a *slog.Logger in their constructor or via an
// option. If no logger is provided, use logging.Nop() for a no-op logger.
package logging
