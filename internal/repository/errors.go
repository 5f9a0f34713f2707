package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrCommitConflict marks a schedule write rejected at commit time, either by
// one of the overlap exclusion constraints or by a serialization failure.
// Callers treat it as a conflict detected late and re-run detection to build
// a report.
var ErrCommitConflict = errors.New("write rejected by overlap constraint")

// ErrDuplicate marks a unique-constraint violation.
var ErrDuplicate = errors.New("unique constraint violated")

const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
	pqSerializationFail  = "40001"
)

func translatePQ(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqExclusionViolation, pqSerializationFail:
		return fmt.Errorf("%w: %v", ErrCommitConflict, err)
	case pqUniqueViolation:
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
