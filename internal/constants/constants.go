package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Fxiaoke open platform endpoints.
const (
	// DefaultAuthRoot is the root under which the corp access token endpoint lives.
	DefaultAuthRoot = "https://open.fxiaoke.com/cgi"

	// DefaultAPIRoot is the root for CRM data endpoints.
	DefaultAPIRoot = "https://open.fxiaoke.com/cgi/crm"

	// DefaultAPIVersion is the CRM API version segment.
	DefaultAPIVersion = "v2"

	// CorpAccessTokenPath is appended to the auth root.
	CorpAccessTokenPath = "/corpAccessToken/get/V2"
)

// Token lifecycle.
const (
	// TokenExpirationBuffer is subtracted from expiresIn when a token is cached.
	TokenExpirationBuffer = 30 * time.Second
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// HTTP status codes commonly used.
const (
	// HTTPStatusOK represents a successful HTTP response.
	HTTPStatusOK = 200
)

// Envelope fields.
const (
	FieldErrorCode        = "errorCode"
	FieldErrorMessage     = "errorMessage"
	FieldErrorDescription = "errorDescription"
	FieldTraceID          = "traceId"
	FieldData             = "data"
	FieldDataList         = "dataList"
	FieldOffset           = "offset"
	FieldLimit            = "limit"
	FieldTotal            = "total"
	FieldFields           = "fields"
)

// Identity fields injected into every data request body.
const (
	FieldCurrentOpenUserID = "currentOpenUserId"
	FieldCorpAccessToken   = "corpAccessToken"
	FieldCorpID            = "corpId"
)

// Object operations.
const (
	// NodeData is the node id for CRM object data endpoints.
	NodeData = "data"

	EndpointQuery  = "query"
	EndpointGet    = "get"
	EndpointCreate = "create"
)

// Pagination limits.
const (
	// DefaultQueryLimit is the page size used by object queries.
	DefaultQueryLimit = 100

	// StandardPageSize is the page size used by the CLI when none is given.
	StandardPageSize = 50
)

// Format constants.
const (
	// FormatJSON represents JSON output format.
	FormatJSON = "json"

	// FormatYAML represents YAML output format.
	FormatYAML = "yaml"

	// FormatTable represents table output format.
	FormatTable = "table"
)

// CLI constants.
const (
	// MinimumArgumentCount is the argument count for KEY VALUE commands.
	MinimumArgumentCount = 2

	// MaskedSecret replaces secrets in displayed configuration.
	MaskedSecret = "***"

	// NotAvailable is displayed for missing values.
	NotAvailable = "N/A"

	// DefaultNATSSubject is where call events are published.
	DefaultNATSSubject = "fxcrm.calls"

	// UserAgent is sent when no override is configured.
	UserAgent = "fxcrm-go/1.0"
)
