// Package storage manages a job's output directory.
//
// Registry hands out unique filenames: reserving "photo.jpg" three times
// yields "photo.jpg", "photo-1.jpg" and "photo-2.jpg". Names are unique
// among the files written by one job; files left by earlier runs are
// overwritten unless the Manager was created with preserveExisting, which
// claims their names up front.
//
// Manager.Save writes through a temp file in the output directory and an
// atomic rename, so readers never observe a partially written image:
//
//	manager, err := storage.NewManager("storage/images", false)
//	if err != nil {
//		return err
//	}
//	file, size, err := manager.Save(resp.Body, "photo.jpg")
package storage
