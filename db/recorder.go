package db

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maxgfr/ratio-master/db/models"
	"github.com/maxgfr/ratio-master/torrent"
)

// Recorder writes the announce history of one run. It satisfies the session
// package's Recorder interface; persistence failures are logged and
// swallowed because history must never interrupt a live session.
type Recorder struct {
	database *Database
	session  *models.Session
}

func (d *Database) NewRecorder(meta *torrent.Metadata, ih *torrent.InfoHash) (*Recorder, error) {
	session, err := d.CreateSession(meta, ih)
	if err != nil {
		return nil, err
	}
	return &Recorder{database: d, session: session}, nil
}

func (r *Recorder) RecordAnnounce(event, summary string, ok bool, uploaded uint64) {
	record := &models.Announce{
		SessionID: r.session.ID,
		Event:     event,
		Result:    summary,
		OK:        ok,
		Uploaded:  uploaded,
		SentAt:    time.Now().Unix(),
	}
	if err := r.database.db.Create(record).Error; err != nil {
		log.Warn().Err(err).Msg("Failed to record announce")
		return
	}

	r.session.Uploaded = uploaded
	if err := r.database.db.Save(r.session).Error; err != nil {
		log.Warn().Err(err).Msg("Failed to update session record")
	}
}

func (r *Recorder) FinishSession(uploaded uint64) {
	r.session.Uploaded = uploaded
	r.session.Status = models.SessionStopped
	r.session.StoppedAt = time.Now().Unix()
	if err := r.database.db.Save(r.session).Error; err != nil {
		log.Warn().Err(err).Msg("Failed to finalize session record")
	}
}
