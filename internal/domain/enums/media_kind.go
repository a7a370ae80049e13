package enums

type MediaKind string

const (
	MediaKindNone  MediaKind = ""
	MediaKindPhoto MediaKind = "photo"
	MediaKindVideo MediaKind = "video"
)

func ParseMediaKind(value string) (MediaKind, bool) {
	switch MediaKind(value) {
	case MediaKindNone, MediaKindPhoto, MediaKindVideo:
		return MediaKind(value), true
	default:
		return MediaKindNone, false
	}
}
