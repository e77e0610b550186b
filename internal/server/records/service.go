package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/dmitrijs2005/clientadmin/internal/logging"
	"github.com/dmitrijs2005/clientadmin/internal/server/blobstore"
	"github.com/dmitrijs2005/clientadmin/internal/server/notify"
)

// Document is the stored JSON document the service reads and rewrites.
// *blobstore.Document implements it.
type Document interface {
	Get(ctx context.Context) (*blobstore.Object, error)
	Put(ctx context.Context, body []byte, ifMatch string) (string, error)
	Location() string
}

// Snapshot is a collection together with the revision it was read at.
type Snapshot struct {
	Records  []Record
	Revision string
}

// Service runs each record operation as load, change, save and notify
// against one stored document.
type Service struct {
	doc      Document
	notifier notify.Notifier
	logger   logging.Logger
}

// NewService returns a Service over doc that reports outcomes to notifier.
func NewService(doc Document, notifier notify.Notifier, logger logging.Logger) *Service {
	return &Service{
		doc:      doc,
		notifier: notifier,
		logger:   logger.With("module", "records", "document", doc.Location()),
	}
}

// Load reads and normalizes the whole document. Any failure is ErrLoad.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	obj, err := s.doc.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrLoad, s.doc.Location(), err)
	}

	recs, err := Decode(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrLoad, s.doc.Location(), err)
	}

	s.logger.Debug(ctx, "document loaded", "records", len(recs), "revision", obj.Revision)

	return &Snapshot{Records: recs, Revision: obj.Revision}, nil
}

// Save overwrites the document with records. When revision is set the write
// only succeeds if the stored document is still at that revision. The
// outcome is always reported to the notifier.
func (s *Service) Save(ctx context.Context, records []Record, revision string) (string, error) {
	return s.save(ctx, "save", records, revision)
}

// Edit reconciles the rows of an edited view into the stored collection.
func (s *Service) Edit(ctx context.Context, rows []Row, revision string) (*Snapshot, error) {
	return s.cycle(ctx, "edit", revision, func(recs []Record) ([]Record, error) {
		return ReconcileRows(recs, rows), nil
	})
}

// Create appends r. ErrDuplicateKey leaves the document untouched.
func (s *Service) Create(ctx context.Context, r Record, revision string) (*Snapshot, error) {
	return s.cycle(ctx, "add", revision, func(recs []Record) ([]Record, error) {
		return Add(recs, r)
	})
}

// Delete removes the records with the given client ids. An empty selection
// returns the current snapshot together with ErrNothingSelected and saves
// nothing.
func (s *Service) Delete(ctx context.Context, ids []string, revision string) (*Snapshot, error) {
	return s.cycle(ctx, "delete", revision, func(recs []Record) ([]Record, error) {
		return Remove(recs, ids)
	})
}

// cycle runs load, revision check, op and save. When op fails the loaded
// snapshot is returned with the error so the caller can re-render it.
func (s *Service) cycle(ctx context.Context, action, revision string, op func([]Record) ([]Record, error)) (*Snapshot, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	if revision != "" && revision != snap.Revision {
		err := fmt.Errorf("%s: page revision %s, stored %s: %w",
			s.doc.Location(), revision, snap.Revision, common.ErrVersionConflict)
		s.reportFailure(ctx, action, err)
		return snap, err
	}

	next, err := op(snap.Records)
	if err != nil {
		return snap, err
	}

	rev, err := s.save(ctx, action, next, snap.Revision)
	if err != nil {
		return snap, err
	}

	return &Snapshot{Records: next, Revision: rev}, nil
}

func (s *Service) save(ctx context.Context, action string, records []Record, ifMatch string) (string, error) {
	body, err := Encode(records)
	if err != nil {
		err = fmt.Errorf("%w: encode: %w", common.ErrSave, err)
		s.reportFailure(ctx, action, err)
		return "", err
	}

	rev, err := s.doc.Put(ctx, body, ifMatch)
	if err != nil {
		if !errors.Is(err, common.ErrVersionConflict) {
			err = fmt.Errorf("%w: %s: %w", common.ErrSave, s.doc.Location(), err)
		}
		s.reportFailure(ctx, action, err)
		return "", err
	}

	s.logger.Info(ctx, "document saved", "action", action, "records", len(records), "revision", rev)
	s.notifier.Notify(ctx, fmt.Sprintf("✅ %s: %d records saved to %s", action, len(records), s.doc.Location()))

	return rev, nil
}

func (s *Service) reportFailure(ctx context.Context, action string, err error) {
	s.logger.Error(ctx, "document save failed", "action", action, "error", err)
	s.notifier.Notify(ctx, fmt.Sprintf("❌ %s failed for %s: %v", action, s.doc.Location(), err))
}
