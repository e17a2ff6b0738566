// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct parsing and
// github.com/joho/godotenv for .env files. Every package in this module
// declares its own Config struct with `env` tags; the daemon loads each of
// them through Load, which parses a type once and serves cached copies after
// that.
//
//	var qcfg queue.Config
//	config.MustLoad(&qcfg)
//
//	q := queue.New(queue.WithConfig(qcfg))
//
// LoadEnv reads explicit .env files before the first Load. ForceReload and
// ResetCache exist for tests.
package config
