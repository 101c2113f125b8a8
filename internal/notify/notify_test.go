package notify

import (
	"testing"

	"fingerattend/internal/model"
)

var list = []model.Notification{
	{ID: 1, SemesterID: 100, IsRead: true},
	{ID: 2, SemesterID: 100},
	{ID: 3, SemesterID: 200},
}

func TestOverlayIsAnOr(t *testing.T) {
	got := Overlay(list, map[int]bool{2: true})
	if !got[0].IsRead || !got[1].IsRead || got[2].IsRead {
		t.Errorf("overlay = %+v", got)
	}
	if list[1].IsRead {
		t.Errorf("input mutated")
	}
	// toggling a backend-read notification off locally leaves it read
	got = Overlay(list, Toggle(map[int]bool{1: true}, 1))
	if !got[0].IsRead {
		t.Errorf("local state must never unread a backend-read notification")
	}
}

func TestToggleAndMarkAll(t *testing.T) {
	read := map[int]bool{}
	read2 := Toggle(read, 2)
	if len(read) != 0 || !read2[2] {
		t.Errorf("toggle on: %v %v", read, read2)
	}
	if Toggle(read2, 2)[2] {
		t.Errorf("toggle off failed")
	}
	all := MarkAll(read2, list)
	if len(all) != 3 {
		t.Errorf("mark all = %v", all)
	}
	if n := Unread(Overlay(list, all)); n != 0 {
		t.Errorf("unread after mark all = %d", n)
	}
}

func TestForSemesterAndUnread(t *testing.T) {
	sem := ForSemester(list, 100)
	if len(sem) != 2 {
		t.Fatalf("semester list = %v", sem)
	}
	if n := Unread(Overlay(sem, nil)); n != 1 {
		t.Errorf("unread = %d", n)
	}
}
