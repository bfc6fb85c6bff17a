package portfolio

// MessageStatus 联系留言状态：pending -> read -> archived，管理员可在三者间任意切换。
type MessageStatus string

const (
	MessagePending  MessageStatus = "pending"
	MessageRead     MessageStatus = "read"
	MessageArchived MessageStatus = "archived"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case MessagePending, MessageRead, MessageArchived:
		return true
	}
	return false
}

// CanTransition reports whether a manual status change is allowed. Every pair of
// valid states is reachable.
func (s MessageStatus) CanTransition(to MessageStatus) bool {
	return s.Valid() && to.Valid()
}

// StatusAfterView is the only automatic transition: opening a pending message marks it read.
func StatusAfterView(current MessageStatus) MessageStatus {
	if current == MessagePending {
		return MessageRead
	}
	return current
}
