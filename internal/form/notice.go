package form

import "time"

// NoticeKind classifies the session error shown to the user.
type NoticeKind string

const (
	NoticeDirectoryUnavailable NoticeKind = "directory_unavailable"
	NoticeSubmissionFailed     NoticeKind = "submission_failed"
	NoticeIncomplete           NoticeKind = "incomplete"
)

// Notice is the single session error. A newer notice replaces an older one.
type Notice struct {
	Kind     NoticeKind
	Message  string
	RaisedAt time.Time
}

// ExpiresAt is zero when notices never expire.
func (n Notice) ExpiresAt(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return n.RaisedAt.Add(ttl)
}

type noticeBoard struct {
	current *Notice
	ttl     time.Duration
}

func (b *noticeBoard) raise(kind NoticeKind, message string, now time.Time) {
	b.current = &Notice{Kind: kind, Message: message, RaisedAt: now}
}

func (b *noticeBoard) dismiss() {
	b.current = nil
}

func (b *noticeBoard) active(now time.Time) (Notice, bool) {
	if b.current == nil {
		return Notice{}, false
	}
	if b.ttl > 0 && !now.Before(b.current.RaisedAt.Add(b.ttl)) {
		b.current = nil
		return Notice{}, false
	}
	return *b.current, true
}
