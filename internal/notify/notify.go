// Package notify overlays locally persisted read-state on backend
// notifications. A notification is read when the backend says so or when its
// id is in the local set; the local set never marks one unread.
package notify

import "fingerattend/internal/model"

// Overlay returns copies of list with IsRead merged from read.
func Overlay(list []model.Notification, read map[int]bool) []model.Notification {
	out := make([]model.Notification, len(list))
	for i, n := range list {
		n.IsRead = n.IsRead || read[n.ID]
		out[i] = n
	}
	return out
}

// ForSemester keeps the notifications addressed to semesterID.
func ForSemester(list []model.Notification, semesterID int) []model.Notification {
	out := []model.Notification{}
	for _, n := range list {
		if n.SemesterID == semesterID {
			out = append(out, n)
		}
	}
	return out
}

// Toggle flips id in a copy of read.
func Toggle(read map[int]bool, id int) map[int]bool {
	out := clone(read)
	if out[id] {
		delete(out, id)
	} else {
		out[id] = true
	}
	return out
}

// MarkAll adds every id of list to a copy of read.
func MarkAll(read map[int]bool, list []model.Notification) map[int]bool {
	out := clone(read)
	for _, n := range list {
		out[n.ID] = true
	}
	return out
}

// Unread counts unread notifications after the overlay.
func Unread(list []model.Notification) int {
	n := 0
	for _, x := range list {
		if !x.IsRead {
			n++
		}
	}
	return n
}

func clone(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		if v {
			out[k] = true
		}
	}
	return out
}
