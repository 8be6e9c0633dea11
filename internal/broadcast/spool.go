package broadcast

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/technosupport/ts-console/internal/data"
)

var ErrSpoolFull = errors.New("broadcast spool full")

const spoolFile = "broadcast_spool.log"

// Recorder persists sent broadcasts. data.BroadcastModel implements it.
type Recorder interface {
	Insert(ctx context.Context, b *data.Broadcast) error
}

// Spool keeps broadcast records that could not be written to the database
// and replays them later. One JSON record per line.
type Spool struct {
	Dir      string
	MaxBytes int64

	mu sync.Mutex
}

func NewSpool(dir string, maxBytes int64) (*Spool, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spool{Dir: dir, MaxBytes: maxBytes}, nil
}

func (s *Spool) size() int64 {
	var size int64
	filepath.WalkDir(s.Dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}

func (s *Spool) Write(b *data.Broadcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(b)
}

func (s *Spool) write(b *data.Broadcast) error {
	if s.MaxBytes > 0 && s.size() >= s.MaxBytes {
		return ErrSpoolFull
	}

	line, err := json.Marshal(b)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(s.Dir, spoolFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

func (s *Spool) appendLines(lines [][]byte) error {
	f, err := os.OpenFile(filepath.Join(s.Dir, spoolFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := f.Write(l); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// Replay moves the spool aside and inserts every record through rec, along
// with any replay file left behind by an earlier interrupted run. Records
// that still fail go back into the spool; they were accepted once, so the
// size cap does not apply to them. Returns how many were flushed.
func (s *Spool) Replay(ctx context.Context, rec Recorder) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filename := filepath.Join(s.Dir, spoolFile)
	info, err := os.Stat(filename)
	switch {
	case err == nil && info.Size() > 0:
		replayFile := filepath.Join(s.Dir, fmt.Sprintf("replay_%d.log", time.Now().UnixNano()))
		if err := os.Rename(filename, replayFile); err != nil {
			return 0, fmt.Errorf("rotate spool for replay: %w", err)
		}
	case err != nil && !os.IsNotExist(err):
		return 0, err
	}

	pending, err := filepath.Glob(filepath.Join(s.Dir, "replay_*.log"))
	if err != nil {
		return 0, err
	}
	sort.Strings(pending)

	var flushed int
	var errs []error
	for _, path := range pending {
		n, err := s.replayFile(ctx, rec, path)
		flushed += n
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
		}
	}
	return flushed, errors.Join(errs...)
}

// replayFile removes path only once every line has been read and the
// failures are safely back in the spool. On a read error the file stays for
// the next run; already flushed lines come back as duplicates then.
func (s *Spool) replayFile(ctx context.Context, rec Recorder, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	var flushed int
	var failed [][]byte
	r := bufio.NewReader(f)
	for {
		line, rerr := r.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var b data.Broadcast
			if err := json.Unmarshal(line, &b); err != nil {
				log.Warn().Err(err).Msg("dropping unreadable spooled broadcast")
			} else {
				err := rec.Insert(ctx, &b)
				switch {
				case err == nil, errors.Is(err, data.ErrDuplicate):
					flushed++
				default:
					if line[len(line)-1] != '\n' {
						line = append(line, '\n')
					}
					failed = append(failed, line)
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			return flushed, rerr
		}
	}
	f.Close()

	if len(failed) > 0 {
		if err := s.appendLines(failed); err != nil {
			return flushed, fmt.Errorf("re-spool: %w", err)
		}
	}
	if err := os.Remove(path); err != nil {
		return flushed, err
	}
	return flushed, nil
}

// StartReplayer replays the spool every interval until ctx is done.
func (s *Spool) StartReplayer(ctx context.Context, rec Recorder, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.Replay(ctx, rec)
				if err != nil {
					log.Error().Err(err).Msg("broadcast spool replay failed")
				} else if n > 0 {
					log.Info().Int("flushed", n).Msg("broadcast spool replayed")
				}
			}
		}
	}()
}
