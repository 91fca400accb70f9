package config

import (
	"strings"
)

// ViewportProfile is a named, predefined browser viewport size.
type ViewportProfile int

const (
	// ProfileCustom uses the explicitly configured width and height.
	ProfileCustom ViewportProfile = iota
	ProfileDesktopFullHD
	ProfileDesktopHD
	ProfileLaptop
	ProfileTabletLandscape
	ProfileTabletPortrait
	ProfileMobileLarge
	ProfileMobileMedium
	ProfileMobileSmall
)

type viewportSize struct {
	name          string
	width, height int
}

var viewportSizes = map[ViewportProfile]viewportSize{
	ProfileCustom:          {name: "Custom"},
	ProfileDesktopFullHD:   {name: "DesktopFullHD", width: 1920, height: 1080},
	ProfileDesktopHD:       {name: "DesktopHD", width: 1366, height: 768},
	ProfileLaptop:          {name: "Laptop", width: 1280, height: 720},
	ProfileTabletLandscape: {name: "TabletLandscape", width: 1024, height: 768},
	ProfileTabletPortrait:  {name: "TabletPortrait", width: 768, height: 1024},
	ProfileMobileLarge:     {name: "MobileLarge", width: 414, height: 896},
	ProfileMobileMedium:    {name: "MobileMedium", width: 375, height: 667},
	ProfileMobileSmall:     {name: "MobileSmall", width: 320, height: 568},
}

// Profiles returns all profiles in declaration order.
func Profiles() []ViewportProfile {
	return []ViewportProfile{
		ProfileDesktopFullHD,
		ProfileDesktopHD,
		ProfileLaptop,
		ProfileTabletLandscape,
		ProfileTabletPortrait,
		ProfileMobileLarge,
		ProfileMobileMedium,
		ProfileMobileSmall,
		ProfileCustom,
	}
}

func (p ViewportProfile) String() string {
	if s, ok := viewportSizes[p]; ok {
		return s.name
	}
	return "Unknown"
}

// Size returns the fixed dimensions of the profile. Custom has none and returns zeros.
func (p ViewportProfile) Size() (width, height int) {
	s := viewportSizes[p]
	return s.width, s.height
}

// ParseViewportProfile parses a profile name case-insensitively.
// Dashes, underscores and spaces are ignored, so "desktop-full-hd" matches DesktopFullHD.
func ParseViewportProfile(name string) (ViewportProfile, bool) {
	key := normalizeProfileName(name)
	if key == "" {
		return ProfileCustom, false
	}
	for p, s := range viewportSizes {
		if strings.ToLower(s.name) == key {
			return p, true
		}
	}
	return ProfileCustom, false
}

// ResolveViewport maps a profile name to its fixed size. Custom and unknown names
// return the explicit width and height unchanged.
func ResolveViewport(profile string, width, height int) (int, int) {
	p, ok := ParseViewportProfile(profile)
	if !ok || p == ProfileCustom {
		return width, height
	}
	return p.Size()
}

func normalizeProfileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}
