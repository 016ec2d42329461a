package platform

// Platform identifies a social network a brand can publish to.
type Platform string

const (
	Facebook  Platform = "facebook"
	Instagram Platform = "instagram"
	Twitter   Platform = "twitter"
	LinkedIn  Platform = "linkedin"
	YouTube   Platform = "youtube"
	WhatsApp  Platform = "whatsapp"
)

// All lists every supported platform in display order.
var All = []Platform{Facebook, Instagram, Twitter, LinkedIn, YouTube, WhatsApp}

func (p Platform) IsValid() bool {
	switch p {
	case Facebook, Instagram, Twitter, LinkedIn, YouTube, WhatsApp:
		return true
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// MediaKind is a coarse media classification used by the capability table.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// Capability describes the static publishing constraints of one platform.
type Capability struct {
	MaxCharacters    int
	AllowedMedia     []MediaKind
	MaxMediaPerPost  int
	SupportsLinkPrev bool
}

var capabilities = map[Platform]Capability{
	Facebook: {
		MaxCharacters:    63206,
		AllowedMedia:     []MediaKind{MediaImage, MediaVideo},
		MaxMediaPerPost:  10,
		SupportsLinkPrev: true,
	},
	Instagram: {
		MaxCharacters:   2200,
		AllowedMedia:    []MediaKind{MediaImage, MediaVideo},
		MaxMediaPerPost: 10,
	},
	Twitter: {
		MaxCharacters:    280,
		AllowedMedia:     []MediaKind{MediaImage, MediaVideo},
		MaxMediaPerPost:  4,
		SupportsLinkPrev: true,
	},
	LinkedIn: {
		MaxCharacters:    3000,
		AllowedMedia:     []MediaKind{MediaImage, MediaVideo, MediaDocument},
		MaxMediaPerPost:  9,
		SupportsLinkPrev: true,
	},
	YouTube: {
		MaxCharacters:   5000,
		AllowedMedia:    []MediaKind{MediaVideo},
		MaxMediaPerPost: 1,
	},
	WhatsApp: {
		MaxCharacters:   4096,
		AllowedMedia:    []MediaKind{MediaImage, MediaVideo, MediaDocument},
		MaxMediaPerPost: 1,
	},
}

// CapabilityFor returns the static constraints for a platform. The zero
// Capability is returned for unknown platforms.
func CapabilityFor(p Platform) Capability {
	return capabilities[p]
}

// AllowsMedia reports whether the platform accepts the given media kind.
func (c Capability) AllowsMedia(kind MediaKind) bool {
	for _, m := range c.AllowedMedia {
		if m == kind {
			return true
		}
	}
	return false
}
