package media_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/filety/scribe/media"
)

func TestMemorySourceOpenRewinds(t *testing.T) {
	src := media.NewMemorySource([]byte("hello"), "audio/wav", "a.wav")

	rc, err := src.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	first, _ := io.ReadAll(rc)
	if string(first) != "hello" {
		t.Fatalf("expected 'hello', got %q", first)
	}

	// consumed readers can seek back to the start
	if _, err := rc.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	again, _ := io.ReadAll(rc)
	if string(again) != "hello" {
		t.Fatalf("expected 'hello' after rewind, got %q", again)
	}
}

func TestDiskSourceOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("wav-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	src := media.NewDiskSource(path, 9, "audio/wav", "clip.wav")
	if src.Kind() != media.KindDisk {
		t.Fatalf("expected disk kind, got %s", src.Kind())
	}

	rc, err := src.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "wav-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestDiskSourceOpenMissingFile(t *testing.T) {
	src := media.NewDiskSource(filepath.Join(t.TempDir(), "gone.wav"), 0, "audio/wav", "gone.wav")
	if _, err := src.Open(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		contentType string
		filename    string
		video       bool
		audio       bool
	}{
		{"video/mp4", "clip.mp4", true, false},
		{"audio/mpeg", "song.mp3", false, true},
		{"application/octet-stream", "clip.mkv", true, false},
		{"application/octet-stream", "voice.OGG", false, true},
		{"", "notes.txt", false, false},
		{"video/quicktime", "", true, false},
	}
	for _, tc := range cases {
		if got := media.IsVideo(tc.contentType, tc.filename); got != tc.video {
			t.Errorf("IsVideo(%q, %q) = %v, want %v", tc.contentType, tc.filename, got, tc.video)
		}
		if got := media.IsAudio(tc.contentType, tc.filename); got != tc.audio {
			t.Errorf("IsAudio(%q, %q) = %v, want %v", tc.contentType, tc.filename, got, tc.audio)
		}
	}
}
