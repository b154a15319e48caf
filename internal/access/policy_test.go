// internal/access/policy_test.go
package access

import (
	"testing"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-reviews/internal/domain"
)

var (
	anonymous = domain.Anonymous()
	user      = domain.Identity{Authenticated: true, UserID: "u1", Email: "b@x.com"}
	admin     = domain.Identity{Authenticated: true, UserID: "u2", Email: "a@x.com", IsAdmin: true}
)

func TestPolicy_Authorize(t *testing.T) {
	p, err := NewPolicy()
	require.NoError(t, err)

	tests := []struct {
		op   Operation
		anon error
		user error
	}{
		{op: ReadMovie},
		{op: ReadReview},
		{op: CreateReview, anon: ErrUnauthenticated},
		{op: CreateMovie, anon: ErrUnauthenticated, user: ErrForbidden},
		{op: DeleteReview, anon: ErrUnauthenticated, user: ErrForbidden},
		{op: ListAllReviews, anon: ErrUnauthenticated, user: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assertDecision(t, tt.anon, p.Authorize(anonymous, tt.op))
			assertDecision(t, tt.user, p.Authorize(user, tt.op))
			assert.NoError(t, p.Authorize(admin, tt.op), "admin may do everything")
		})
	}
}

func assertDecision(t *testing.T, want, got error) {
	t.Helper()
	if want == nil {
		assert.NoError(t, got)
		return
	}
	assert.ErrorIs(t, got, want)
}

func TestPolicy_UnknownOperationDenied(t *testing.T) {
	p, err := NewPolicy()
	require.NoError(t, err)

	op := Operation{Object: "movie", Action: "update"}
	assert.ErrorIs(t, p.Authorize(anonymous, op), ErrUnauthenticated)
	assert.ErrorIs(t, p.Authorize(user, op), ErrForbidden)
	assert.ErrorIs(t, p.Authorize(admin, op), ErrForbidden)
}

func TestPolicy_AdminFlagWithoutSessionIsAnonymous(t *testing.T) {
	p, err := NewPolicy()
	require.NoError(t, err)

	forged := domain.Identity{IsAdmin: true}
	assert.ErrorIs(t, p.Authorize(forged, CreateMovie), ErrUnauthenticated)
}

func TestLoadRules_Malformed(t *testing.T) {
	m, err := model.NewModelFromString(policyModel)
	require.NoError(t, err)
	e, err := casbin.NewSyncedEnforcer(m)
	require.NoError(t, err)

	assert.Error(t, loadRules(e, "p, admin, movie"))
	assert.Error(t, loadRules(e, "x, admin, movie, read"))
	assert.NoError(t, loadRules(e, "# comment\n\np, admin, movie, read\n"))
}
