package crossword

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/schema"

	"github.com/randomouscrap98/wordgrid/identity"
)

// All the data held onto for the duration of hosting the crossword service
type CrosswordContext struct {
	config   *Config
	store    *Store
	sessions *SessionManager
	codec    *AnswerCodec
	users    *identity.IdentityContext
	decoder  *schema.Decoder
}

func NewCrosswordContext(config *Config, users *identity.IdentityContext) (*CrosswordContext, error) {
	dir, _ := filepath.Split(config.DatabasePath)
	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(config.DatabasePath)
	if err != nil {
		return nil, err
	}
	sessions, err := NewSessionManager(config)
	if err != nil {
		store.Close()
		return nil, err
	}
	codec, err := NewAnswerCodec(config.AnswerKey)
	if err != nil {
		store.Close()
		return nil, err
	}
	if codec == nil {
		// Service still hosts authoring + listings, but every play start
		// will fail loudly rather than leak plaintext.
		log.Printf("WARN: no AnswerKey configured, play sessions will be unavailable")
	}
	return &CrosswordContext{
		config:   config,
		store:    store,
		sessions: sessions,
		codec:    codec,
		users:    users,
		decoder:  schema.NewDecoder(),
	}, nil
}

func (cctx *CrosswordContext) Close() error {
	return cctx.store.Close()
}

// Fan a profile rename out over the author's puzzles. Wired as the
// identity OnRename hook at startup.
func (cctx *CrosswordContext) UpdateAuthorName(uid int64, name string) error {
	return cctx.store.UpdateAuthorName(uid, name)
}

// Periodically recompute the denormalized public puzzle counts. The
// recompute is idempotent, so running it on a timer (and once at startup)
// is always safe.
func (cctx *CrosswordContext) RunBackground(cancel context.Context, wg *sync.WaitGroup) {
	go func() {
		defer wg.Done()
		err := cctx.RefreshPublicCounts()
		if err != nil {
			log.Printf("ERROR: initial public count refresh failed: %s", err)
		}
		ticker := time.NewTicker(time.Duration(cctx.config.RecountInterval))
		defer ticker.Stop()
		for {
			select {
			case <-cancel.Done():
				log.Printf("Crossword background task exiting")
				return
			case <-ticker.C:
				err := cctx.RefreshPublicCounts()
				if err != nil {
					log.Printf("ERROR: public count refresh failed: %s", err)
				}
			}
		}
	}()
}
