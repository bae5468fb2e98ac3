package identity

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/randomouscrap98/wordgrid/utils"
)

// All the data held onto for the duration of hosting the identity service
type IdentityContext struct {
	config *Config
	db     *sqlx.DB
	secret []byte
	mailer Mailer
	// Called after a profile save changes the display name, so whoever
	// denormalized it (the puzzle store) can fan the rename out.
	OnRename func(uid int64, name string) error
}

func NewIdentityContext(config *Config) (*IdentityContext, error) {
	dir, _ := filepath.Split(config.DatabasePath)
	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return nil, err
	}
	db, err := utils.OpenSqlite(config.DatabasePath)
	if err != nil {
		return nil, err
	}
	err = createTables(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	err = utils.VerifyVersionedDb(db, DatabaseVersion)
	if err != nil {
		db.Close()
		return nil, err
	}
	secret, err := parseTokenSecret(config)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &IdentityContext{
		config: config,
		db:     db,
		secret: secret,
		mailer: &LogMailer{},
	}, nil
}

// Swap in a real mail delivery. Call before hosting.
func (ictx *IdentityContext) SetMailer(mailer Mailer) {
	ictx.mailer = mailer
}

func (ictx *IdentityContext) Close() error {
	return ictx.db.Close()
}

// Background sweep of expired/used reset codes; they're worthless after
// 15 minutes and there's no reason to keep them around.
func (ictx *IdentityContext) RunBackground(cancel context.Context, wg *sync.WaitGroup) {
	go func() {
		defer wg.Done()
		interval := time.Duration(ictx.config.ResetPurgeInterval)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-cancel.Done():
				log.Printf("Identity background task exiting")
				return
			case <-ticker.C:
				err := ictx.purgeDeadResetCodes()
				if err != nil {
					log.Printf("ERROR: couldn't purge reset codes: %s", err)
				}
			}
		}
	}()
}

func (ictx *IdentityContext) purgeDeadResetCodes() error {
	_, err := ictx.db.Exec("delete from reset_codes where used = 1 or expires < ?", now())
	return err
}
