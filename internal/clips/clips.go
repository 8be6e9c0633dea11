package clips

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/technosupport/ts-console/internal/playback"
)

var ErrClipNotFound = errors.New("clip not found")

type Status string

const (
	StatusSaved Status = "saved"
	StatusReady Status = "ready"
)

// SavedClip is a bookmark over a simulated feed; no video bytes are captured.
type SavedClip struct {
	ID             string    `json:"id"`
	CCTVID         string    `json:"cctv_id"`
	CCTVName       string    `json:"cctv_name"`
	SavedAt        time.Time `json:"saved_at"`
	Duration       string    `json:"duration"` // "m:ss - m:ss"
	FrameTimestamp string    `json:"frame_timestamp"`
	Thumbnail      string    `json:"thumbnail"`
	Status         Status    `json:"status"`
}

// Label is the one-line description used in bulletins.
func (c SavedClip) Label() string {
	return c.CCTVName + " " + c.Duration
}

// Source identifies the camera a clip is cut from.
type Source struct {
	CCTVID    string
	CCTVName  string
	Thumbnail string
}

// List is an ordered collection of clips owned by one popup or draft.
type List struct {
	Clips []SavedClip `json:"clips"`
}

// Save records the current position of pb as a new clip.
func (l *List) Save(src Source, pb playback.State, now time.Time) SavedClip {
	c := SavedClip{
		ID:             uuid.New().String(),
		CCTVID:         src.CCTVID,
		CCTVName:       src.CCTVName,
		SavedAt:        now,
		Duration:       pb.Range(),
		FrameTimestamp: now.Format("2006-01-02 15:04:05"),
		Thumbnail:      src.Thumbnail,
		Status:         StatusSaved,
	}
	l.Clips = append(l.Clips, c)
	return c
}

func (l *List) index(id string) int {
	for i, c := range l.Clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Append adds an existing clip, keeping its id.
func (l *List) Append(c SavedClip) {
	l.Clips = append(l.Clips, c)
}

// Remove deletes a clip by id and returns it.
func (l *List) Remove(id string) (SavedClip, error) {
	i := l.index(id)
	if i < 0 {
		return SavedClip{}, ErrClipNotFound
	}
	c := l.Clips[i]
	l.Clips = append(l.Clips[:i], l.Clips[i+1:]...)
	return c, nil
}

func (l *List) MarkReady(id string) error {
	i := l.index(id)
	if i < 0 {
		return ErrClipNotFound
	}
	l.Clips[i].Status = StatusReady
	return nil
}

// MoveTo transfers a clip into dst; it no longer exists in l afterwards.
func (l *List) MoveTo(id string, dst *List) (SavedClip, error) {
	c, err := l.Remove(id)
	if err != nil {
		return SavedClip{}, err
	}
	dst.Append(c)
	return c, nil
}

func (l *List) Len() int {
	return len(l.Clips)
}

// Labels lists clip labels in order.
func (l *List) Labels() []string {
	out := make([]string, len(l.Clips))
	for i, c := range l.Clips {
		out[i] = c.Label()
	}
	return out
}
