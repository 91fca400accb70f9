package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/networkteam/shopcheck/config"
)

func TestParseViewportProfile(t *testing.T) {
	tests := []struct {
		input    string
		expected config.ViewportProfile
		ok       bool
	}{
		{"DesktopFullHD", config.ProfileDesktopFullHD, true},
		{"desktopfullhd", config.ProfileDesktopFullHD, true},
		{"desktop-full-hd", config.ProfileDesktopFullHD, true},
		{"MOBILE_SMALL", config.ProfileMobileSmall, true},
		{" TabletPortrait ", config.ProfileTabletPortrait, true},
		{"custom", config.ProfileCustom, true},
		{"", config.ProfileCustom, false},
		{"Phablet", config.ProfileCustom, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, ok := config.ParseViewportProfile(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestResolveViewport(t *testing.T) {
	w, h := config.ResolveViewport("Laptop", 10, 20)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	w, h = config.ResolveViewport("MobileMedium", 0, 0)
	assert.Equal(t, 375, w)
	assert.Equal(t, 667, h)

	w, h = config.ResolveViewport("Custom", 800, 600)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

func TestResolveViewport_FixedProfilesIgnoreExplicitSize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		profile := rapid.SampledFrom(config.Profiles()).Draw(t, "profile")
		if profile == config.ProfileCustom {
			t.Skip("custom has no fixed size")
		}
		width := rapid.Int().Draw(t, "width")
		height := rapid.Int().Draw(t, "height")

		name := profile.String()
		if rapid.Bool().Draw(t, "lower") {
			name = strings.ToLower(name)
		}

		gotW, gotH := config.ResolveViewport(name, width, height)
		wantW, wantH := profile.Size()
		if gotW != wantW || gotH != wantH {
			t.Fatalf("ResolveViewport(%q) = %dx%d, want %dx%d", name, gotW, gotH, wantW, wantH)
		}
		if gotW <= 0 || gotH <= 0 {
			t.Fatalf("profile %s has non-positive size", profile)
		}
	})
}

func TestResolveViewport_CustomAndUnknownPassThrough(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Names with a digit never match a profile.
		name := rapid.OneOf(
			rapid.Just("Custom"),
			rapid.Just("cUsToM"),
			rapid.StringMatching(`[a-z]{0,8}[0-9][a-z]{0,8}`),
		).Draw(t, "name")
		width := rapid.Int().Draw(t, "width")
		height := rapid.Int().Draw(t, "height")

		gotW, gotH := config.ResolveViewport(name, width, height)
		if gotW != width || gotH != height {
			t.Fatalf("ResolveViewport(%q, %d, %d) = %dx%d", name, width, height, gotW, gotH)
		}
	})
}

func TestCaptureMode_Keep(t *testing.T) {
	assert.True(t, config.CaptureOn.Keep(false))
	assert.True(t, config.CaptureOn.Keep(true))
	assert.False(t, config.CaptureRetainOnFailure.Keep(false))
	assert.True(t, config.CaptureRetainOnFailure.Keep(true))
	assert.True(t, config.CaptureOnlyOnFailure.Keep(true))
	assert.False(t, config.CaptureOff.Keep(true))
	assert.False(t, config.CaptureOff.Enabled())
}
