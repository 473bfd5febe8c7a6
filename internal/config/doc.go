// Package config defines the application's configuration structure and
// loading logic (viper-backed, validated with go-playground/validator).
package config
