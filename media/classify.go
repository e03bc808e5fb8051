package media

import (
	"path/filepath"
	"strings"
)

// Extension fallbacks for uploads whose content type is missing or generic.
var (
	videoExtensions = map[string]bool{
		".mp4": true, ".mov": true, ".mkv": true, ".avi": true, ".webm": true,
	}
	audioExtensions = map[string]bool{
		".mp3": true, ".wav": true, ".ogg": true, ".m4a": true, ".flac": true,
	}
)

// IsVideo reports whether the upload should go through audio extraction.
// The declared content type wins; the filename extension is the fallback.
func IsVideo(contentType, filename string) bool {
	if strings.HasPrefix(contentType, "video/") {
		return true
	}
	return videoExtensions[ext(filename)]
}

// IsAudio reports whether the upload is already audio.
func IsAudio(contentType, filename string) bool {
	if strings.HasPrefix(contentType, "audio/") {
		return true
	}
	return audioExtensions[ext(filename)]
}

func ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
