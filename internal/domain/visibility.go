package domain

// CanView decides whether an actor may see a meeting. groupMemberIDs is
// the membership of the meeting's group; it is only consulted when the
// meeting has one. Rules are evaluated in order:
// public, admin, creator, group member.
func CanView(actor User, meeting Meeting, groupMemberIDs map[int64]struct{}) bool {
	if !meeting.IsPrivate {
		return true
	}
	if actor.IsAdmin {
		return true
	}
	if actor.ID == meeting.CreatedBy {
		return true
	}
	if meeting.GroupID != nil {
		if _, ok := groupMemberIDs[actor.ID]; ok {
			return true
		}
	}
	return false
}

// CanModify is the stricter edit/delete authorization: only the creator
// or an admin, regardless of the privacy flag.
func CanModify(actor User, meeting Meeting) bool {
	return actor.IsAdmin || actor.ID == meeting.CreatedBy
}
