package video

import "github.com/vidmill/videos-ms-go/internal/model"

// CanRead is the single read-access predicate shared by the detail, stream
// and listing paths. Public videos are readable by any authenticated caller;
// private ones only by their owner or an admin.
func CanRead(v *model.Video, caller model.Caller) bool {
	return v.Visibility == model.VisibilityPublic ||
		caller.ID == v.OwnerID ||
		caller.Role == model.RoleAdmin
}

// CanDelete allows the owner and admins to delete a video.
func CanDelete(v *model.Video, caller model.Caller) bool {
	return caller.Role == model.RoleAdmin || caller.ID == v.OwnerID
}
