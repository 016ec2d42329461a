package platform

import "testing"

func TestIsValid(t *testing.T) {
	for _, p := range All {
		if !p.IsValid() {
			t.Fatalf("expected %s to be valid", p)
		}
	}
	for _, p := range []Platform{"", "tiktok", "Facebook"} {
		if p.IsValid() {
			t.Fatalf("expected %q to be invalid", p)
		}
	}
}

func TestCapabilityTable(t *testing.T) {
	for _, p := range All {
		c := CapabilityFor(p)
		if c.MaxCharacters <= 0 {
			t.Fatalf("%s: missing character limit", p)
		}
		if len(c.AllowedMedia) == 0 {
			t.Fatalf("%s: no allowed media kinds", p)
		}
		if c.MaxMediaPerPost <= 0 {
			t.Fatalf("%s: missing media count limit", p)
		}
	}

	if CapabilityFor(Twitter).MaxCharacters != 280 {
		t.Fatalf("unexpected twitter character limit")
	}
	if CapabilityFor(Platform("tiktok")).MaxCharacters != 0 {
		t.Fatalf("unknown platform should get the zero capability")
	}
}

func TestAllowsMedia(t *testing.T) {
	youtube := CapabilityFor(YouTube)
	if !youtube.AllowsMedia(MediaVideo) {
		t.Fatalf("youtube should allow video")
	}
	if youtube.AllowsMedia(MediaImage) {
		t.Fatalf("youtube should not allow images")
	}
	if !CapabilityFor(LinkedIn).AllowsMedia(MediaDocument) {
		t.Fatalf("linkedin should allow documents")
	}
	if CapabilityFor(Facebook).AllowsMedia(MediaDocument) {
		t.Fatalf("facebook should not allow documents")
	}
}
