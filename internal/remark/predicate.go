package remark

import "time"

// IsUnread reports whether a remark is unread for its recipient. It is the
// only place the read-state rule is expressed; every query path calls it.
//
// A remark is unread when it exists and the recipient either never
// acknowledged it or acknowledged it before its latest write. A read taken at
// exactly the write time counts as read.
func IsUnread(hasRemark bool, remarkUpdatedAt, readAt *time.Time) bool {
	if !hasRemark {
		return false
	}
	if readAt == nil {
		return true
	}
	if remarkUpdatedAt == nil {
		return false
	}
	return readAt.Before(*remarkUpdatedAt)
}
