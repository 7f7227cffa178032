//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package config

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

// LogFormat selects the stdout log handler
// ENUM(text,json,charm)
type LogFormat string
