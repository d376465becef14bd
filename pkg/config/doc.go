// Package config loads typed configuration structs from environment
// variables using `env` struct tags, with optional .env file support for
// local development.
//
// Each package that needs configuration declares its own Config struct and
// the service entrypoint loads it once:
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
