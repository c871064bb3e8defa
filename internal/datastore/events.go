package datastore

import (
	"context"
	"dsclient/internal/types"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

type handleEvent struct {
	Event      string `json:"event"`
	UniverseID int64  `json:"universe_id"`
	PlaceID    int64  `json:"place_id"`
	Name       string `json:"name"`
	Scope      string `json:"scope"`
	Kind       string `json:"kind"`
	Generation string `json:"generation"`
	At         int64  `json:"at"`
}

// publishCreated sends the handle_created event in the background. Failures
// are logged and otherwise ignored.
func (s *Service) publishCreated(key types.StoreKey, kind types.StoreKind, gen types.Generation) {
	if s.publisher == nil || s.cfg.EventTopic == "" {
		return
	}
	b, err := json.Marshal(handleEvent{
		Event:      "handle_created",
		UniverseID: s.cfg.UniverseID,
		PlaceID:    s.cfg.PlaceID,
		Name:       key.Name,
		Scope:      key.Scope,
		Kind:       kind.String(),
		Generation: gen.String(),
		At:         time.Now().UnixMilli(),
	})
	if err != nil {
		log.WithError(err).Error("marshal handle event")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishRaw(ctx, s.cfg.EventTopic, b); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"name":  key.Name,
				"scope": key.Scope,
				"kind":  kind.String(),
			}).Warn("failed to publish handle event")
		}
	}()
}
