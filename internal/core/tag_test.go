package core

import "testing"

func TestInvalidExtendedTag(t *testing.T) {
	if InvalidExtendedTag.Tag != InvalidTag {
		t.Errorf("InvalidExtendedTag.Tag = %d, want InvalidTag", InvalidExtendedTag.Tag)
	}
	if InvalidExtendedTag.HandleIndex != NoHandleIndex {
		t.Errorf("InvalidExtendedTag.HandleIndex = %d, want NoHandleIndex", InvalidExtendedTag.HandleIndex)
	}
}

func TestQueueFlags(t *testing.T) {
	flags := QueueGraphics | QueueTransfer
	if flags&QueueCompute != 0 {
		t.Error("flags should not carry QueueCompute")
	}
	if flags&QueueGraphics == 0 || flags&QueueTransfer == 0 {
		t.Error("flags should carry both QueueGraphics and QueueTransfer")
	}
}

func TestInvalidQueue(t *testing.T) {
	if InvalidQueue >= 0 {
		t.Error("InvalidQueue should be negative so it never collides with a real QueueID")
	}
}
