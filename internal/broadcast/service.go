// Package broadcast sends bulletin drafts: it publishes them on NATS and
// records them in the database, spooling the record to disk when the
// database write fails.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/technosupport/ts-console/internal/clips"
	"github.com/technosupport/ts-console/internal/data"
)

var (
	ErrEmptyDraft    = errors.New("broadcast draft has no text")
	ErrPublishFailed = errors.New("bulletin publish failed")
)

// Bulletin is the message published for a sent draft.
type Bulletin struct {
	ID         string            `json:"id"`
	IncidentID string            `json:"incident_id"`
	Operator   string            `json:"operator"`
	Text       string            `json:"text"`
	Clips      []clips.SavedClip `json:"clips"`
	SentAt     time.Time         `json:"sent_at"`
}

type Service struct {
	pub   Publisher
	rec   Recorder
	spool *Spool
	now   func() time.Time
}

// NewService wires the publisher and recorder. rec and spool may be nil.
func NewService(pub Publisher, rec Recorder, spool *Spool) *Service {
	return &Service{pub: pub, rec: rec, spool: spool, now: time.Now}
}

// Send publishes the draft and clears it. A publish failure leaves the draft
// intact; a record failure does not fail the send.
func (s *Service) Send(ctx context.Context, d *Draft, operator string) (*Bulletin, error) {
	if d.Text == "" {
		return nil, ErrEmptyDraft
	}

	b := &Bulletin{
		ID:         uuid.New().String(),
		IncidentID: d.IncidentID,
		Operator:   operator,
		Text:       d.Text,
		Clips:      append([]clips.SavedClip(nil), d.Clips.Clips...),
		SentAt:     s.now().UTC(),
	}

	if err := s.pub.Publish(ctx, b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	s.record(ctx, b)
	d.Clear()
	return b, nil
}

func (s *Service) record(ctx context.Context, b *Bulletin) {
	if s.rec == nil {
		return
	}
	rec := &data.Broadcast{
		ID:         uuid.MustParse(b.ID),
		IncidentID: b.IncidentID,
		Operator:   b.Operator,
		Text:       b.Text,
		SentAt:     b.SentAt,
	}
	for _, c := range b.Clips {
		rec.ClipIDs = append(rec.ClipIDs, c.ID)
	}

	err := s.rec.Insert(ctx, rec)
	if err == nil {
		return
	}
	if s.spool == nil {
		log.Error().Err(err).Str("broadcast_id", b.ID).Msg("broadcast record failed")
		return
	}
	log.Warn().Err(err).Str("broadcast_id", b.ID).Msg("broadcast record failed, spooling")
	if err := s.spool.Write(rec); err != nil {
		log.Error().Err(err).Str("broadcast_id", b.ID).Msg("broadcast spool failed")
	}
}
