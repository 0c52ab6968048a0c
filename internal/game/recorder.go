package game

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/replay"
	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

// Keys of the additional information written with every recorded game.
const (
	InfoID        = "id"
	InfoPlayer    = "player"
	InfoTickRate  = "tick_rate"
	InfoDAS       = replay.InfoDAS
	InfoARR       = replay.InfoARR
	InfoVersion   = "version"
	InfoCreatedAt = "created_at"
)

// RecorderConfig describes where a recorded session goes.
type RecorderConfig struct {
	Directory string
	// Store, if set, indexes the recording and its final scores.
	Store *storage.Store
	// Compress archives the finished recording with zstd.
	Compress bool
	Player   string
	Version  string
}

// Information builds the additional information of a recorded session.
func Information(id uuid.UUID, cfg Config, rc RecorderConfig, now time.Time) (*recording.AdditionalInformation, error) {
	info := recording.NewAdditionalInformation()
	values := []struct {
		key   string
		value recording.InformationValue
	}{
		{InfoID, recording.StringValue(id.String())},
		{InfoPlayer, recording.StringValue(rc.Player)},
		{InfoTickRate, recording.U32Value(cfg.TickRate)},
		{InfoDAS, recording.U64Value(cfg.Input.DAS)},
		{InfoARR, recording.U64Value(cfg.Input.ARR)},
		{InfoVersion, recording.StringValue(rc.Version)},
		{InfoCreatedAt, recording.I64Value(now.Unix())},
	}
	for _, v := range values {
		if err := info.Add(v.key, v.value, false); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// Recorded is a session whose inputs and snapshots go to a file.
type Recorded struct {
	*Session
	ID     uuid.UUID
	Path   string
	rc     RecorderConfig
	logger *log.Logger
}

// StartRecorded creates the recording file and the session writing into it.
// The file is named after a fresh ID inside rc.Directory.
func StartRecorded(cfg Config, rc RecorderConfig, now time.Time) (*Recorded, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	info, err := Information(id, cfg, rc, now)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(rc.Directory, now.Format("20060102_150405")+"_"+id.String()[:8]+recording.FileExtension)
	writer, err := recording.Create(path, Headers(cfg), info, false)
	if err != nil {
		return nil, err
	}

	session, err := NewSession(cfg, writer)
	if err != nil {
		writer.Close() //nolint:errcheck // Best-effort
		return nil, err
	}

	r := &Recorded{Session: session, ID: id, Path: path, rc: rc, logger: session.logger}
	if rc.Store != nil {
		_, err := rc.Store.SaveRecording(storage.RecordingEntry{
			ID:            id,
			Path:          path,
			Checksum:      writer.Checksum().String(),
			Tetrions:      cfg.Players,
			Seed:          cfg.Seed,
			StartingLevel: cfg.StartingLevel,
			Player:        rc.Player,
		})
		if err != nil {
			r.logger.Warn("could not index recording", "path", path, "err", err)
		}
	}
	r.logger.Info("recording", "path", path, "id", id)
	return r, nil
}

// Finish closes the recording, stores the final scores and archives the file
// when compression is enabled.
func (r *Recorded) Finish() (Result, error) {
	res, err := r.Session.Close()
	if err != nil {
		return res, err
	}

	var best uint64
	var lines uint32
	for i, score := range res.Scores {
		best = max(best, score)
		lines += res.Lines[i]
	}

	if store := r.rc.Store; store != nil {
		if err := store.FinishRecording(r.ID, best, lines, res.Steps); err != nil {
			r.logger.Warn("could not update recording index", "err", err)
		}
		for i, score := range res.Scores {
			if score == 0 {
				continue
			}
			//nolint:errcheck // Best-effort save, the recording holds the result
			store.SaveScore(storage.ScoreEntry{
				RecordingID: r.ID,
				Player:      r.rc.Player,
				Score:       score,
				Level:       res.Levels[i],
				Lines:       res.Lines[i],
			})
		}
	}

	if r.rc.Compress {
		if err := r.archive(); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (r *Recorded) archive() error {
	dst := r.Path + recording.ArchiveExtension
	if err := recording.Archive(r.Path, dst); err != nil {
		return fmt.Errorf("game: cannot archive recording: %w", err)
	}
	if err := os.Remove(r.Path); err != nil {
		return fmt.Errorf("game: cannot remove archived recording: %w", err)
	}
	r.Path = dst
	if r.rc.Store != nil {
		if err := r.rc.Store.MoveRecording(r.ID, dst); err != nil {
			r.logger.Warn("could not update recording path", "err", err)
		}
	}
	r.logger.Info("archived recording", "path", dst)
	return nil
}
