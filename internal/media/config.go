package media

import (
	"os"
	"strconv"
	"strings"
)

func resolveMaxFileBytes() int64 {
	return resolvePositiveInt64Env("MEDIA_MAX_FILE_BYTES", defaultMaxFileBytes)
}

func resolveMaxSingleImageBytes() int64 {
	return resolvePositiveInt64Env("MEDIA_MAX_SINGLE_IMAGE_BYTES", defaultMaxSingleImageBytes)
}

func resolveUploadsBasePath() string {
	value := strings.TrimSpace(os.Getenv("UPLOADS_PATH"))
	if value == "" {
		return defaultUploadsBasePath
	}
	return value
}

func resolvePublicBaseURL() string {
	value := strings.TrimSpace(os.Getenv("APP_BASE_URL"))
	if value == "" {
		return defaultPublicBaseURL
	}
	return value
}

func resolvePositiveInt64Env(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return fallback
	}

	return value
}
