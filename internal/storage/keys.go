package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an object key does not exist in the bucket.
var ErrNotFound = errors.New("object not found")

// ObjectKey builds the namespaced key for a file's bytes:
// <owner>/<folder|root>/<file>_<name>. Keeping the owner and folder in the
// key makes bucket listings legible and collisions impossible across users.
func ObjectKey(ownerID, folderID, fileID, filename string) string {
	if folderID == "" {
		folderID = "root"
	}
	return fmt.Sprintf("%s/%s/%s_%s", ownerID, folderID, fileID, filename)
}
