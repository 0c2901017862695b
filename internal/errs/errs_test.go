package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrappedErrorsMatchSentinels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err      error
		sentinel error
	}{
		{NotFoundf("room %s not found", "r1"), ErrNotFound},
		{Forbiddenf("not a participant"), ErrForbidden},
		{InvalidStatef("already cancelled"), ErrInvalidState},
		{Validationf("bad input"), ErrValidation},
		{Conflictf("duplicate"), ErrConflict},
	}

	for _, tc := range cases {
		if !errors.Is(tc.err, tc.sentinel) {
			t.Errorf("%v must match its sentinel", tc.err)
		}
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	t.Parallel()

	if errors.Is(NotFoundf("x"), ErrForbidden) {
		t.Error("sentinels must not cross-match")
	}
}

func TestWrappingSurvivesFurtherWrapping(t *testing.T) {
	t.Parallel()

	inner := NotFoundf("message missing")
	outer := fmt.Errorf("recall failed: %w", inner)
	if !errors.Is(outer, ErrNotFound) {
		t.Error("sentinel must survive additional wrapping")
	}
}
