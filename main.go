package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/maxgfr/ratio-master/config"
	"github.com/maxgfr/ratio-master/db"
	"github.com/maxgfr/ratio-master/peerwire"
	"github.com/maxgfr/ratio-master/session"
	"github.com/maxgfr/ratio-master/torrent"
	"github.com/maxgfr/ratio-master/tracker"
	"github.com/maxgfr/ratio-master/utils"
)

const VERSION = "0.1.0"

var CLI struct {
	Inspect struct {
		Torrent string `arg:"" help:"Torrent file to inspect." type:"existingfile"`
	} `cmd:"" help:"Print a torrent's metadata and info hash."`
	Seed struct {
		Torrent  string        `arg:"" help:"Torrent file to announce." type:"existingfile"`
		Speed    uint64        `help:"Simulated upload speed in KiB/s (overrides UPLOAD_SPEED_KB)."`
		Listen   bool          `help:"Answer peer handshakes on the announced port."`
		Duration time.Duration `help:"Stop the session after this long (default: run until interrupted)."`
	} `cmd:"" help:"Announce the torrent as a seeding peer."`
	History struct {
		Limit int `default:"10" help:"Number of sessions to show."`
	} `cmd:"" help:"Show recent seeding sessions."`
}

var mainDB *db.Database

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	println("ratio-master v" + VERSION)
	initLogging()
	defer shutdownLogging()

	parser, err := kong.New(&CLI)
	if err != nil {
		log.Error().Err(err).Msg("Error building command line")
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		log.Error().Err(err).Msg("Invalid command line")
		return 1
	}

	switch kctx.Command() {
	case "inspect <torrent>":
		if err := inspectTorrent(CLI.Inspect.Torrent); err != nil {
			log.Error().Err(err).Msg("Error inspecting torrent")
			return 1
		}
	case "seed <torrent>":
		if err := initDB(); err != nil {
			log.Error().Err(err).Msg("Error initializing database")
			return 1
		}
		defer mainDB.Close()
		if err := seedTorrent(CLI.Seed.Torrent, CLI.Seed.Speed, CLI.Seed.Listen, CLI.Seed.Duration); err != nil {
			log.Error().Err(err).Msg("Error seeding torrent")
			return 1
		}
	case "history":
		if err := initDB(); err != nil {
			log.Error().Err(err).Msg("Error initializing database")
			return 1
		}
		defer mainDB.Close()
		if err := showHistory(CLI.History.Limit); err != nil {
			log.Error().Err(err).Msg("Error reading session history")
			return 1
		}
	default:
		kctx.PrintUsage(false)
		return 1
	}
	return 0
}

func initDB() error {
	var err error
	mainDB, err = db.Init()
	return err
}

func inspectTorrent(path string) error {
	meta, err := torrent.LoadMetadata(path)
	if err != nil {
		return err
	}
	ih, err := torrent.ComputeInfoHashFile(path)
	if err != nil {
		return err
	}
	println("Torrent:")
	print(meta.String())
	println("  InfoHash: " + ih.Hex())
	return nil
}

func seedTorrent(path string, speedKiB uint64, listen bool, duration time.Duration) error {
	meta, err := torrent.LoadMetadata(path)
	if err != nil {
		return err
	}
	if meta.Announce == "" {
		return errors.New("torrent has no announce URL")
	}
	ih, err := torrent.ComputeInfoHashFile(path)
	if err != nil {
		return err
	}
	id, err := torrent.NewIdentity()
	if err != nil {
		return err
	}
	log.Info().
		Str("infoHash", ih.Hex()).
		Str("peerID", string(id.PeerID[:8])).
		Int("port", id.Port).
		Msg("Session identity")

	speed := config.Main.UploadSpeed
	if speedKiB > 0 {
		speed = speedKiB * 1024
	}

	// First interrupt triggers the graceful stopped announce; restoring the
	// default handler lets a second interrupt kill the process outright.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	if listen {
		responder, err := peerwire.Listen(":"+strconv.Itoa(id.Port), ih.Digest(), id.PeerID)
		if err != nil {
			log.Warn().Err(err).Msg("Could not listen on announce port")
		} else {
			go responder.Serve(ctx)
		}
	}

	sess := session.New(meta, tracker.NewClient(meta.Announce, ih, id), speed)
	recorder, err := mainDB.NewRecorder(meta, ih)
	if err != nil {
		log.Warn().Err(err).Msg("Session history disabled")
	} else {
		sess.SetRecorder(recorder)
	}

	sess.Run(ctx)
	return nil
}

func showHistory(limit int) error {
	sessions, err := mainDB.LastSessions(limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		println("No sessions recorded.")
		return nil
	}
	for _, s := range sessions {
		started := time.Unix(s.StartedAt, 0).Format("2006-01-02 15:04")
		println(fmt.Sprintf("%s  %-8s  %-10s  %s  %s",
			started, s.Status, utils.FormatBytes(s.Uploaded), s.Name, s.Announce))
	}
	return nil
}
