package constants

import "errors"

// Configuration errors.
var (
	ErrNoCredentials       = errors.New("app id, app secret and permanent code are required, use 'fxcrm config set' or FXCRM_* variables")
	ErrNoOpenUserID        = errors.New("no open user id configured, set open_user_id")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrSecretPromptNoTTY   = errors.New("app secret is not configured and stdin is not a terminal")
	ErrConfigFileNotFound  = errors.New("configuration file not found")
	ErrUnsupportedFileType = errors.New("unsupported payload file type, expected .json, .yaml or .yml")
)

// Argument errors.
var (
	ErrInvalidFilterFormat = errors.New("invalid filter format, expected field:operator:value")
	ErrInvalidOrderFormat  = errors.New("invalid order format, expected field:asc|desc")
	ErrDataOrFileRequired  = errors.New("one of --data or --file is required")
	ErrInvalidOutputFormat = errors.New("invalid output format, expected table, json or yaml")
)
