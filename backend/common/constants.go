package common

import (
	"flag"
	"time"
)

var Version = "v0.0.0"

var (
	Port          = flag.Int("port", 8084, "the listening port")
	PrintVersion  = flag.Bool("version", false, "print version and exit")
	PrintHelpFlag = flag.Bool("help", false, "print help and exit")
	LogDir        = flag.String("log-dir", "", "specify the log directory")
	ConfigPath    = flag.String("config", "", "path to an ini config file (default ~/.config/tuneful/config.ini)")
)

// Profile selects the storage defaults the service starts with.
type Profile string

const (
	ProfileDevelopment Profile = "development"
	ProfileTesting     Profile = "testing"
	ProfileProduction  Profile = "production"
)

const (
	BlobBackendLocal = "local"
	BlobBackendS3    = "s3"
)

var ActiveProfile = ProfileDevelopment

// SQLDSN selects MySQL, or PostgreSQL when it starts with postgres://.
// SQLite at SQLitePath is used when it is empty.
var SQLDSN = ""
var SQLitePath = "tuneful.db"

var UploadPath = "uploads"
var BlobBackend = BlobBackendLocal

var (
	S3Bucket    = ""
	S3Region    = "us-east-1"
	S3Endpoint  = ""
	S3AccessKey = ""
	S3SecretKey = ""
)

var RedisConnString = ""
var RedisEnabled = false

var SongCacheTTL = 10 * time.Minute

// ServerAddress is the public base URL used for file download links.
// Empty means it is derived from the incoming request.
var ServerAddress = ""

var EnableGzip = false

// TrustProxyHeaders lets X-Forwarded-For and X-Forwarded-Proto from the
// client decide the client IP and the scheme of download links.
var TrustProxyHeaders = false

var GlobalApiRateLimitNum = 300
var GlobalApiRateLimitDuration int64 = 3 * 60

const (
	KeyRequestId = "X-Request-Id"
	KeyDBSession = "db_session"
	KeyErrorCode = "error_code"
)

const (
	MimeJSON      = "application/json"
	MimeMultipart = "multipart/form-data"
)

// MaxFileNameLength mirrors the width of files.name.
const MaxFileNameLength = 128
