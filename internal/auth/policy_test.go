package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkravets/photoshare-service/internal/models"
)

func TestCan(t *testing.T) {
	user := &models.User{ID: 1, Role: models.RoleUser}
	moderator := &models.User{ID: 2, Role: models.RoleModerator}
	admin := &models.User{ID: 3, Role: models.RoleAdmin}

	tests := []struct {
		name    string
		actor   *models.User
		action  Action
		ownerID int64
		want    bool
	}{
		{"nil actor denied", nil, ActionPhotoDelete, 1, false},
		{"owner updates own photo", user, ActionPhotoUpdate, 1, true},
		{"owner deletes own photo", user, ActionPhotoDelete, 1, true},
		{"user cannot touch foreign photo", user, ActionPhotoDelete, 2, false},
		{"author edits own comment", user, ActionCommentEdit, 1, true},
		{"author deletes own comment", user, ActionCommentDelete, 1, true},
		{"user cannot delete foreign comment", user, ActionCommentDelete, 2, false},
		{"rater cannot delete own rating", user, ActionRatingDelete, 1, false},
		{"user cannot ban", user, ActionUserBan, 0, false},
		{"moderator deletes any comment", moderator, ActionCommentDelete, 1, true},
		{"moderator deletes any rating", moderator, ActionRatingDelete, 1, true},
		{"moderator cannot delete foreign photo", moderator, ActionPhotoDelete, 1, false},
		{"moderator cannot edit foreign comment", moderator, ActionCommentEdit, 1, false},
		{"moderator deletes own photo", moderator, ActionPhotoDelete, 2, true},
		{"moderator cannot ban", moderator, ActionUserBan, 0, false},
		{"admin deletes any photo", admin, ActionPhotoDelete, 1, true},
		{"admin edits any comment", admin, ActionCommentEdit, 1, true},
		{"admin deletes any rating", admin, ActionRatingDelete, 1, true},
		{"admin bans", admin, ActionUserBan, 0, true},
		{"unknown role denied", &models.User{ID: 4, Role: "super"}, ActionPhotoUpdate, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.actor, tt.action, tt.ownerID))
		})
	}
}
