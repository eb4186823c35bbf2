package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maxgfr/ratio-master/config"
	"github.com/maxgfr/ratio-master/db"
	"github.com/maxgfr/ratio-master/torrent"
)

func writeTestTorrent(t *testing.T, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.torrent")
	if err := os.WriteFile(path, contents, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func useTempDatabase(t *testing.T) {
	t.Helper()
	original := config.Main.DB.Path
	config.Main.DB.Path = filepath.Join(t.TempDir(), "sessions.db")
	t.Cleanup(func() { config.Main.DB.Path = original })
}

func TestRunInspect(t *testing.T) {
	path := writeTestTorrent(t, []byte("d8:announce23:http://tracker.test/ann"+
		"4:infod6:lengthi1024e4:name8:test.bin12:piece lengthi16384e6:pieces20:aaaaaaaaaaaaaaaaaaaaee"))

	if code := run([]string{"inspect", path}); code != 0 {
		t.Errorf("run(inspect) = %d, want 0", code)
	}
}

func TestRunInspectFailureExitsNonZero(t *testing.T) {
	path := writeTestTorrent(t, []byte("not a torrent"))

	if code := run([]string{"inspect", path}); code != 1 {
		t.Errorf("run(inspect) on invalid file = %d, want 1", code)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if code := run([]string{"frobnicate"}); code != 1 {
		t.Errorf("run(frobnicate) = %d, want 1", code)
	}
}

func TestRunHistory(t *testing.T) {
	useTempDatabase(t)

	if code := run([]string{"history"}); code != 0 {
		t.Errorf("run(history) on empty database = %d, want 0", code)
	}

	// Record one session and list it.
	d, err := db.Init()
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("d8:announce23:http://tracker.test/ann" +
		"4:infod6:lengthi1024e4:name8:test.bin12:piece lengthi16384e6:pieces20:aaaaaaaaaaaaaaaaaaaaee")
	meta, err := torrent.ParseMetadata(data)
	if err != nil {
		t.Fatal(err)
	}
	ih, err := torrent.ComputeInfoHash(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.CreateSession(meta, ih); err != nil {
		t.Fatal(err)
	}
	d.Close()

	if code := run([]string{"history", "--limit", "5"}); code != 0 {
		t.Errorf("run(history) = %d, want 0", code)
	}
}
