package services

// 积分动作常量
const (
	ActionPostUpvoted       = "post upvoted"
	ActionPostUnvoted       = "post vote retracted"
	ActionCommentUpvoted    = "comment upvoted"
	ActionCommentUnvoted    = "comment vote retracted"
	ActionModeratorAdjusted = "moderator adjustment"
)

func voteAction(isPost, applied bool) string {
	switch {
	case isPost && applied:
		return ActionPostUpvoted
	case isPost:
		return ActionPostUnvoted
	case applied:
		return ActionCommentUpvoted
	default:
		return ActionCommentUnvoted
	}
}
