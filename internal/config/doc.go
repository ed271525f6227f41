// Package config loads service configuration from a YAML file, a .env file
// and environment variables, in increasing order of precedence, and validates
// every section.
package config
