package util

const DateFormat = "2006-01-02"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const MaxAvatarSize = 2 << 20

var AllowedAvatarTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ContextUserKey holds the session claims set by the auth middleware.
const ContextUserKey = "user"
