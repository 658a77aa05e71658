package auth

import "github.com/dkravets/photoshare-service/internal/models"

// Action names an authorization-gated operation.
type Action string

const (
	ActionPhotoUpdate   Action = "photo:update"
	ActionPhotoDelete   Action = "photo:delete"
	ActionCommentEdit   Action = "comment:edit"
	ActionCommentDelete Action = "comment:delete"
	ActionRatingDelete  Action = "rating:delete"
	ActionUserBan       Action = "user:ban"
)

// moderation actions available to moderators in addition to their own
// resources.
var moderatorActions = map[Action]bool{
	ActionCommentDelete: true,
	ActionRatingDelete:  true,
}

// privileged actions that ownership never grants: rating removal is a
// moderation tool and banning is administrative.
var privilegedActions = map[Action]bool{
	ActionRatingDelete: true,
	ActionUserBan:      true,
}

// Can is the authorization policy: a pure function over role, ownership
// and action. Admins may do anything; moderators may moderate comments and
// ratings; users may mutate only what they own. Reads are unrestricted and
// never consult the policy. Banned actors must be rejected before this is
// evaluated.
func Can(actor *models.User, action Action, ownerID int64) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleModerator:
		if moderatorActions[action] {
			return true
		}
	case models.RoleUser:
	default:
		return false
	}
	// Ownership grants the remaining mutations.
	return !privilegedActions[action] && actor.ID == ownerID
}
