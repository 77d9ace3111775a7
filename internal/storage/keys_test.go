package storage

import "testing"

func TestObjectKey(t *testing.T) {
	t.Run("With Folder", func(t *testing.T) {
		key := ObjectKey("owner1", "folderA", "file9", "report.pdf")
		if key != "owner1/folderA/file9_report.pdf" {
			t.Errorf("Unexpected key: %q", key)
		}
	})

	t.Run("Root Level", func(t *testing.T) {
		key := ObjectKey("owner1", "", "file9", "report.pdf")
		if key != "owner1/root/file9_report.pdf" {
			t.Errorf("Unexpected key: %q", key)
		}
	})

	t.Run("Distinct Files Never Collide", func(t *testing.T) {
		a := ObjectKey("owner1", "", "fileA", "same.txt")
		b := ObjectKey("owner1", "", "fileB", "same.txt")
		if a == b {
			t.Errorf("Keys for distinct files collided: %q", a)
		}
	})
}
