package constants

import (
	"time"
)

// Application identity
const (
	// AppName is the binary and config directory name.
	AppName = "pdrive"

	// AppID is the fyne application id.
	AppID = "com.rescale.pdrive"

	// EnvPrefix is the prefix of every environment variable the client reads.
	EnvPrefix = "PDRIVE_"
)

// API defaults
const (
	// DefaultAPIBaseURL - API base used when nothing is configured. Relative, so it is
	// resolved against DefaultOrigin.
	DefaultAPIBaseURL = "/api"

	// DefaultOrigin - origin used to resolve a relative API base and relative download URLs
	DefaultOrigin = "http://localhost:8000"

	// DefaultDevServerAddr - listen address for `pdrive dev-server`
	DefaultDevServerAddr = "127.0.0.1:8000"

	// UploadFormField - multipart field name carrying the file body
	UploadFormField = "file"

	// CopyBufferSize - size of pooled buffers used to stream file bodies (256 KB)
	CopyBufferSize = 256 * 1024
)

// Event bus configuration
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	// Sufficient for a batch of uploads plus browser redraw events.
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios (5000)
	EventBusMaxBuffer = 5000
)

// Retry configuration
const (
	// MaxRetries - maximum number of retries for transient errors
	MaxRetries = 3

	// RetryInitialDelay - initial delay before first retry (200ms)
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (5s)
	RetryMaxDelay = 5 * time.Second
)

// Rate limiting
const (
	// DefaultRequestsPerSecond - client-side request budget against the storage API
	DefaultRequestsPerSecond = 20.0

	// DefaultRequestBurst - burst allowance of the request limiter
	DefaultRequestBurst = 10

	// RateLimitWarningThreshold - limiter delay above which a warning is logged (2 seconds)
	RateLimitWarningThreshold = 2 * time.Second
)

// API and Context Timeouts
const (
	// HTTPTimeout - overall timeout of a single API request (60 seconds)
	HTTPTimeout = 60 * time.Second

	// UploadTimeout - overall timeout of a single multipart upload (30 minutes)
	UploadTimeout = 30 * time.Minute

	// GUIOperationTimeout - timeout for individual GUI-initiated operations (5 minutes)
	GUIOperationTimeout = 5 * time.Minute
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPMaxIdleConnsPerHost - idle connection pool size per host
	HTTPMaxIdleConnsPerHost = 10
)

// User-facing messages shared between the CLI and the GUI
const (
	// MsgUploadFailed - fallback message for an upload failure without details
	MsgUploadFailed = "Upload failed"

	// MsgFolderNotFound - shown when the selected folder no longer exists
	MsgFolderNotFound = "Folder not found"

	// MsgSelectFolder - placeholder shown when no folder is selected
	MsgSelectFolder = "Select a folder to view its contents"

	// MsgFolderEmpty - single empty-state indicator of a folder view
	MsgFolderEmpty = "This folder is empty"

	// MsgNoFolders - shown when the folder tree has no root folders
	MsgNoFolders = "No folders yet"
)
