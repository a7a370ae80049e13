package model

import (
	"time"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/enums"
)

type Profile struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"owner_id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	MediaKind   enums.MediaKind `json:"media_kind"`
	MediaFileID string          `json:"media_file_id"`
	Approved    bool            `json:"approved"`
	CreatedAt   time.Time       `json:"created_at"`
	DeleteAt    time.Time       `json:"delete_at"`
}

func (p Profile) Media() Media {
	return Media{Kind: p.MediaKind, FileID: p.MediaFileID}
}

// Media is an opaque transport token (Telegram file id); the backend
// never interprets or dereferences it.
type Media struct {
	Kind   enums.MediaKind `json:"kind"`
	FileID string          `json:"file_id"`
}
