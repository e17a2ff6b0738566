// Package logger builds *slog.Logger instances for taskcore services and
// provides attribute helpers with fixed keys for task lifecycle logging.
//
// New creates a JSON or text handler according to the supplied options and
// wraps it with a handler that adds attributes pulled from the
// context (for example the HTTP request id) to every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "taskcored"),
//	    logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	log.Info("task completed",
//	    logger.TaskID(id),
//	    logger.Duration(task.Duration()),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
