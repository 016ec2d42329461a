package publish

import (
	"fmt"

	"socialflow/internal/models"
	"socialflow/internal/platform"
)

// AvailableChannels is the snapshot handed to the composer: which platforms
// are targeted, which channels exist per platform, and which targets have
// nothing connected yet.
type AvailableChannels struct {
	TargetPlatforms  []platform.Platform                    `json:"target_platforms"`
	Channels         map[platform.Platform][]models.Channel `json:"channels"`
	MissingPlatforms []platform.Platform                    `json:"missing_platforms"`
}

// BuildAvailableChannels groups a brand's channels by platform against the
// given targets. MissingPlatforms is exactly the subset of targets with zero
// channels.
func BuildAvailableChannels(targets []platform.Platform, channels []models.Channel) AvailableChannels {
	grouped := make(map[platform.Platform][]models.Channel)
	for _, ch := range channels {
		p := platform.Platform(ch.Platform)
		if !p.IsValid() {
			continue
		}
		grouped[p] = append(grouped[p], ch)
	}

	out := AvailableChannels{
		TargetPlatforms: targets,
		Channels:        make(map[platform.Platform][]models.Channel, len(targets)),
	}
	for _, p := range targets {
		out.Channels[p] = grouped[p]
		if len(grouped[p]) == 0 {
			out.MissingPlatforms = append(out.MissingPlatforms, p)
		}
	}
	return out
}

// Assignment is one platform's chosen channel in an outgoing publish.
type Assignment struct {
	Platform  platform.Platform `json:"platform"`
	ChannelID string            `json:"channel_id"`
}

type assignmentEntry struct {
	enabled   bool
	channelID string
}

// AssignmentSet tracks, per target platform, the enabled flag and the
// selected channel. Disabling a platform keeps the stored selection so
// re-enabling restores it.
type AssignmentSet struct {
	order     []platform.Platform
	entries   map[platform.Platform]*assignmentEntry
	available map[platform.Platform][]models.Channel
}

// NewAssignmentSet seeds an assignment set from an AvailableChannels
// snapshot: every target with at least one channel starts enabled with its
// first channel preselected; targets with no channels stay permanently
// disabled.
func NewAssignmentSet(avail AvailableChannels) *AssignmentSet {
	s := &AssignmentSet{
		order:     avail.TargetPlatforms,
		entries:   make(map[platform.Platform]*assignmentEntry, len(avail.TargetPlatforms)),
		available: avail.Channels,
	}
	for _, p := range avail.TargetPlatforms {
		entry := &assignmentEntry{}
		if chs := avail.Channels[p]; len(chs) > 0 {
			entry.enabled = true
			entry.channelID = chs[0].ID
		}
		s.entries[p] = entry
	}
	return s
}

// Assign selects a channel for a platform, last write wins. The channel must
// be one of the platform's available channels.
func (s *AssignmentSet) Assign(p platform.Platform, channelID string) error {
	entry, ok := s.entries[p]
	if !ok {
		return fmt.Errorf("platform %s is not a target", p)
	}
	for _, ch := range s.available[p] {
		if ch.ID == channelID {
			entry.channelID = channelID
			return nil
		}
	}
	return fmt.Errorf("channel %s is not connected for %s", channelID, p)
}

// SetEnabled toggles a platform on or off. A platform with zero connected
// channels can never be enabled. Disabling does not clear the selection.
func (s *AssignmentSet) SetEnabled(p platform.Platform, enabled bool) error {
	entry, ok := s.entries[p]
	if !ok {
		return fmt.Errorf("platform %s is not a target", p)
	}
	if enabled && len(s.available[p]) == 0 {
		return fmt.Errorf("no channel connected for %s", p)
	}
	entry.enabled = enabled
	return nil
}

// Enabled reports the toggle state of a platform.
func (s *AssignmentSet) Enabled(p platform.Platform) bool {
	entry, ok := s.entries[p]
	return ok && entry.enabled
}

// Selected returns the stored channel selection for a platform, whether or
// not the platform is currently enabled.
func (s *AssignmentSet) Selected(p platform.Platform) (string, bool) {
	entry, ok := s.entries[p]
	if !ok || entry.channelID == "" {
		return "", false
	}
	return entry.channelID, true
}

// EnabledAssignments returns the outgoing assignment list: enabled platforms
// with a channel selection, in target order.
func (s *AssignmentSet) EnabledAssignments() []Assignment {
	var out []Assignment
	for _, p := range s.order {
		entry := s.entries[p]
		if entry.enabled && entry.channelID != "" {
			out = append(out, Assignment{Platform: p, ChannelID: entry.channelID})
		}
	}
	return out
}

// EnabledCount is the number of platforms currently toggled on.
func (s *AssignmentSet) EnabledCount() int {
	n := 0
	for _, entry := range s.entries {
		if entry.enabled {
			n++
		}
	}
	return n
}
