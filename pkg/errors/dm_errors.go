package errors

var (
	ErrConversationNotFound = NotFound("conversation not found")
	ErrMessageNotFound      = NotFound("message not found")
	ErrNotParticipant       = Forbidden("you are not a participant of this conversation")
	ErrNotMessageOwner      = Forbidden("only the message sender can perform this action")
	ErrSystemMessage        = Forbidden("system messages cannot be changed")
	ErrCannotMessageSelf    = InvalidParticipant("cannot start a conversation with yourself")
	ErrMissingEmail         = InvalidParticipant("participant has no resolvable contact email")
	ErrUnknownContact       = InvalidParticipant("contact not found in your directory")
	ErrYouBlocked           = Blocked("you blocked this user")
	ErrEmptyMessage         = InvalidArg("message needs content or media")
)
