package sources

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/threadsync/core/internal/models"
	"github.com/threadsync/core/internal/modules/mention"
)

// ErrAllUserSourcesFailed is returned only when every backing user list
// failed; a single failed source degrades to a partial candidate list.
var ErrAllUserSourcesFailed = errors.New("sources: all user sources failed")

// UserSource merges mention candidates from project collaborators and SSO
// users.
type UserSource struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserSource(db *gorm.DB, log *zap.Logger) *UserSource {
	return &UserSource{db: db, log: log}
}

// Candidates lists user mention candidates matching the partial query.
func (s *UserSource) Candidates(ctx context.Context, query string) ([]models.UserMention, error) {
	collab, collabErr := s.listCollaborators(ctx)
	sso, ssoErr := s.listSSOUsers(ctx)
	return mergeUserCandidates(collab, collabErr, sso, ssoErr, query, s.log)
}

func (s *UserSource) listCollaborators(ctx context.Context) ([]models.UserMention, error) {
	var rows []models.UserModel
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.UserMention, 0, len(rows))
	for _, u := range rows {
		out = append(out, models.UserMention{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			AvatarURL: u.Avatar,
		})
	}
	return out, nil
}

func (s *UserSource) listSSOUsers(ctx context.Context) ([]models.UserMention, error) {
	var rows []models.SSOUserModel
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.UserMention, 0, len(rows))
	for _, u := range rows {
		out = append(out, models.UserMention{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			AvatarURL: u.Avatar,
		})
	}
	return out, nil
}

// mergeUserCandidates combines both lists, deduplicating by email with
// collaborators winning over their SSO shadow. One failed source is
// tolerated and logged; the merge fails only when nothing succeeded.
func mergeUserCandidates(collab []models.UserMention, collabErr error, sso []models.UserMention, ssoErr error, query string, log *zap.Logger) ([]models.UserMention, error) {
	if collabErr != nil && ssoErr != nil {
		return nil, errors.Join(ErrAllUserSourcesFailed, collabErr, ssoErr)
	}
	if collabErr != nil && log != nil {
		log.Warn("collaborator source failed, serving SSO users only", zap.Error(collabErr))
	}
	if ssoErr != nil && log != nil {
		log.Warn("sso source failed, serving collaborators only", zap.Error(ssoErr))
	}

	seen := make(map[string]struct{}, len(collab)+len(sso))
	out := make([]models.UserMention, 0, len(collab)+len(sso))
	for _, u := range append(collab, sso...) {
		key := strings.ToLower(strings.TrimSpace(u.Email))
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		if !mention.MatchesQuery(query, u.Name, u.Email) {
			continue
		}
		out = append(out, u)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}
