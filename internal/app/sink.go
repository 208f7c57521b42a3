package app

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/handsign/internal/dataset"
	"github.com/ayusman/handsign/internal/session"
	"github.com/ayusman/handsign/internal/store"
	"github.com/ayusman/handsign/internal/vocab"
)

// StoreSink persists committed segments under one store session.
type StoreSink struct {
	store   *store.Store
	session *store.Session
	log     logrus.FieldLogger
}

// NewStoreSink checks the vocabulary against the store and opens a new
// collection session.
func NewStoreSink(s *store.Store, v *vocab.Vocabulary, targetCount int, log logrus.FieldLogger) (*StoreSink, error) {
	if err := s.Vocabulary().Ensure(v); err != nil {
		return nil, err
	}

	sess, err := s.Sessions().Create(targetCount)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &StoreSink{
		store:   s,
		session: sess,
		log:     log.WithField("session_id", sess.ID),
	}, nil
}

// SessionID returns the store session the samples are recorded under.
func (k *StoreSink) SessionID() string {
	return k.session.ID
}

// Commit writes one finalized segment. It matches session.CommitFunc.
func (k *StoreSink) Commit(label int, samples []dataset.Sample, complete bool) error {
	if len(samples) == 0 {
		return nil
	}
	if err := k.store.Samples().Create(k.session.ID, samples); err != nil {
		return err
	}
	k.log.WithFields(logrus.Fields{
		"label":    label,
		"samples":  len(samples),
		"complete": complete,
	}).Debug("segment stored")
	return nil
}

// Finish marks the session complete or abandoned according to rec.
func (k *StoreSink) Finish(rec *session.Recorder) error {
	status := store.SessionComplete
	if rec.Abandoned() {
		status = store.SessionAbandoned
	}
	return k.store.Sessions().Finish(k.session.ID, status)
}
