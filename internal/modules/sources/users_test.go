package sources

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/threadsync/core/internal/models"
)

func TestMergeUserCandidatesDeduplicatesByEmail(t *testing.T) {
	collab := []models.UserMention{
		{ID: "u1", Name: "Alice", Email: "alice@example.com", AvatarURL: "a.png"},
	}
	sso := []models.UserMention{
		{ID: "sso-1", Name: "Alice (SSO)", Email: "Alice@Example.com"},
		{ID: "sso-2", Name: "Bob", Email: "bob@example.com"},
	}

	out, err := mergeUserCandidates(collab, nil, sso, nil, "", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, out, 2)
	// the collaborator row wins over its SSO shadow
	assert.Equal(t, "u1", out[0].ID)
	assert.Equal(t, "sso-2", out[1].ID)
}

func TestMergeUserCandidatesFiltersByQuery(t *testing.T) {
	collab := []models.UserMention{
		{ID: "u1", Name: "Alice", Email: "alice@corp.io"},
		{ID: "u2", Name: "Bob", Email: "bob@corp.io"},
	}

	out, err := mergeUserCandidates(collab, nil, nil, nil, "ALI", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "u1", out[0].ID)

	// query matches email too
	out, err = mergeUserCandidates(collab, nil, nil, nil, "bob@", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "u2", out[0].ID)
}

func TestMergeUserCandidatesToleratesOneFailedSource(t *testing.T) {
	sso := []models.UserMention{{ID: "sso-1", Name: "Carol", Email: "carol@corp.io"}}

	out, err := mergeUserCandidates(nil, errors.New("db down"), sso, nil, "", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "sso-1", out[0].ID)
}

func TestMergeUserCandidatesFailsOnlyWhenBothFail(t *testing.T) {
	_, err := mergeUserCandidates(nil, errors.New("db down"), nil, errors.New("sso down"), "", zap.NewNop())
	assert.ErrorIs(t, err, ErrAllUserSourcesFailed)
}
