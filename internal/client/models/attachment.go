package models

const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"
)

// Attachment is the local bookkeeping row for a media file recorded with an
// entry. The file itself is staged on disk as AES-GCM ciphertext and
// uploaded to object storage only after the owning entry has synced.
type Attachment struct {
	EntryLocalID string
	StagedPath   string
	Key          []byte
	Nonce        []byte
	UploadStatus string
}
