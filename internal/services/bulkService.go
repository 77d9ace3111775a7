package services

import (
	"context"
	"errors"
)

// BulkService fans move and copy requests out to the file and folder
// services, one item at a time. There is no cross-item transaction; every
// item succeeds or fails on its own and the caller gets the full outcome
// list.
type BulkService struct {
	files   *FileService
	folders *FolderService
}

// NewBulkService wires the bulk service to the services doing the work.
func NewBulkService(files *FileService, folders *FolderService) *BulkService {
	return &BulkService{files: files, folders: folders}
}

// BulkInput names the items to act on. DestinationID "" targets root
// level.
type BulkInput struct {
	FileIDs       []string
	FolderIDs     []string
	DestinationID string
}

// Move reparents the given files and folders. Folders whose move would
// create a cycle are reported as skipped, never as a request failure.
func (s *BulkService) Move(ctx context.Context, ownerID string, in BulkInput) ([]ItemResult, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return nil, err
	}
	if len(in.FileIDs)+len(in.FolderIDs) == 0 {
		return nil, NewValidationError("nothing to move")
	}
	dest, err := s.folders.resolveParent(ctx, owner, in.DestinationID)
	if err != nil {
		return nil, err
	}

	results := make([]ItemResult, 0, len(in.FileIDs)+len(in.FolderIDs))
	for _, id := range in.FileIDs {
		err := s.files.MoveFile(ctx, owner, id, dest)
		results = append(results, itemOutcome("file", id, StatusMoved, err))
	}
	for _, id := range in.FolderIDs {
		err := s.folders.MoveFolder(ctx, owner, id, dest)
		results = append(results, itemOutcome("folder", id, StatusMoved, err))
	}
	return results, nil
}

// Copy duplicates the given files and folders into the destination. File
// copies carry the bytes; folder copies duplicate the row only, their
// contents stay where they are.
func (s *BulkService) Copy(ctx context.Context, ownerID string, in BulkInput) ([]ItemResult, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return nil, err
	}
	if len(in.FileIDs)+len(in.FolderIDs) == 0 {
		return nil, NewValidationError("nothing to copy")
	}
	dest, err := s.folders.resolveParent(ctx, owner, in.DestinationID)
	if err != nil {
		return nil, err
	}

	results := make([]ItemResult, 0, len(in.FileIDs)+len(in.FolderIDs))
	for _, id := range in.FileIDs {
		_, err := s.files.CopyFile(ctx, owner, id, dest)
		results = append(results, itemOutcome("file", id, StatusCopied, err))
	}
	for _, id := range in.FolderIDs {
		_, err := s.folders.CopyFolder(ctx, owner, id, dest)
		results = append(results, itemOutcome("folder", id, StatusCopied, err))
	}
	return results, nil
}

// itemOutcome maps one item's error onto its reported status: cycle and
// other validation rejections become "skipped", everything else "failed".
func itemOutcome(kind, id, okStatus string, err error) ItemResult {
	if err == nil {
		return ItemResult{ID: id, Kind: kind, Status: okStatus}
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return ItemResult{ID: id, Kind: kind, Status: StatusSkipped, Reason: verr.Msg}
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMissingContent) {
		return ItemResult{ID: id, Kind: kind, Status: StatusFailed, Reason: err.Error()}
	}
	return ItemResult{ID: id, Kind: kind, Status: StatusFailed, Reason: "internal error"}
}
