package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"namesmith/internal/domain"
)

// BadgerRepository implements the Repository interface using BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerRepository opens (or creates) the database at dbPath.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.Info("BadgerDB opened successfully at path: ", dbPath)

	return &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
	}, nil
}

// Close closes the BadgerDB database connection.
func (r *BadgerRepository) Close() error {
	r.log.Info("Closing BadgerDB...")
	err := r.db.Close()
	if err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Info("BadgerDB closed.")
	return nil
}

// generateStateKey creates the key holding a user's state.
// Format: user:{userID}:state
func generateStateKey(userID int64) []byte {
	return []byte(fmt.Sprintf("user:%d:state", userID))
}

// LoadState reads the user's state. Corrupt records are discarded.
func (r *BadgerRepository) LoadState(ctx context.Context, userID int64) (domain.State, error) {
	log := r.log.WithField("user_id", userID)

	var raw []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(generateStateKey(userID))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		log.Debug("No stored state, starting empty")
		return domain.State{}, nil
	}
	if err != nil {
		log.WithError(err).Error("Failed to read state from BadgerDB")
		return domain.State{}, fmt.Errorf("failed to load state for user %d: %w", userID, err)
	}

	state, err := DecodeState(raw)
	if err != nil {
		log.WithError(err).Warn("Discarding corrupt stored state")
		return domain.State{}, nil
	}

	log.WithFields(logrus.Fields{
		"active":   len(state.GeneratedNames),
		"archived": len(state.ArchivedNames),
	}).Debug("State loaded")
	return state, nil
}

// SaveState overwrites the user's state.
func (r *BadgerRepository) SaveState(ctx context.Context, userID int64, s domain.State) error {
	log := r.log.WithField("user_id", userID)

	data, err := EncodeState(s)
	if err != nil {
		log.WithError(err).Error("Failed to encode state")
		return err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(generateStateKey(userID), data))
	})
	if err != nil {
		log.WithError(err).Error("Failed to save state to BadgerDB")
		return fmt.Errorf("failed to save state for user %d: %w", userID, err)
	}

	log.Debug("State saved")
	return nil
}

// DeleteState removes the user's state. Deleting a missing key is not an error.
func (r *BadgerRepository) DeleteState(ctx context.Context, userID int64) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(generateStateKey(userID))
	})
	if err != nil {
		r.log.WithError(err).WithField("user_id", userID).Error("Failed to delete state from BadgerDB")
		return fmt.Errorf("failed to delete state for user %d: %w", userID, err)
	}
	return nil
}

// RunGC periodically reclaims value log space until ctx is cancelled.
func (r *BadgerRepository) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := r.db.RunValueLogGC(0.7)
			switch {
			case err == nil:
				r.log.Info("BadgerDB GC completed successfully")
			case errors.Is(err, badger.ErrNoRewrite):
				r.log.Debug("BadgerDB GC: No rewrite needed")
			case errors.Is(err, badger.ErrDBClosed):
				return
			default:
				r.log.WithError(err).Error("BadgerDB GC failed")
			}
		case <-ctx.Done():
			r.log.Info("Stopping BadgerDB GC routine")
			return
		}
	}
}

// --- BadgerDB Internal Logger ---

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
