package validation

import (
	"fmt"
	"regexp"
)

var (
	// StreamNameRegex validates stream name characters: uppercase and
	// lowercase letters, numbers, period, underscore and hyphen.
	StreamNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// BroadcastLocations lists the region codes accepted by the ingest service.
var BroadcastLocations = []string{
	"asia_pacific_australia",
	"asia_pacific_india",
	"asia_pacific_japan",
	"asia_pacific_singapore",
	"asia_pacific_s_korea",
	"asia_pacific_taiwan",
	"eu_belgium",
	"eu_germany",
	"eu_ireland",
	"south_america_brazil",
	"us_central_iowa",
	"us_east_s_carolina",
	"us_east_virginia",
	"us_west_california",
	"us_west_oregon",
}

// PassthroughLocations lists the locations where the passthrough transcoder
// type is available.
var PassthroughLocations = []string{
	"asia_pacific_taiwan",
	"eu_belgium",
	"us_central_iowa",
	"us_east_s_carolina",
}

// TranscoderTypes lists the accepted transcoder types.
var TranscoderTypes = []string{"transcoded", "passthrough"}

// SupportedEncoder is the only encoder this client provisions streams for.
const SupportedEncoder = "wowza_gocoder"

// ValidateStreamName validates a stream creation name.
func ValidateStreamName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > 200 {
		return fmt.Errorf("name is too long (max 200 characters)")
	}
	if !StreamNameRegex.MatchString(name) {
		return fmt.Errorf("name contains invalid characters (only letters, numbers, '.', '_', '-' allowed)")
	}
	return nil
}

// ValidateAspectRatio validates width and height against the service
// constraints: each a multiple of 8, within range, proportioned exactly
// 16:9 or 4:3.
func ValidateAspectRatio(width, height int) error {
	if width%8 != 0 {
		return fmt.Errorf("aspect_ratio_width must be divisible by 8")
	}
	if height%8 != 0 {
		return fmt.Errorf("aspect_ratio_height must be divisible by 8")
	}
	if width < 10 || width > 3840 {
		return fmt.Errorf("aspect_ratio_width must be between 10 and 3840")
	}
	if height < 10 || height > 2160 {
		return fmt.Errorf("aspect_ratio_height must be between 10 and 2160")
	}
	if !is16by9(width, height) && !is4by3(width, height) {
		return fmt.Errorf("aspect_ratio_width and aspect_ratio_height must be in proportion 16:9 or 4:3")
	}
	return nil
}

// ValidateBroadcastLocation validates a region code.
func ValidateBroadcastLocation(location string) error {
	if !containsString(BroadcastLocations, location) {
		return fmt.Errorf("invalid broadcast_location %q", location)
	}
	return nil
}

// ValidateEncoder validates the encoder value.
func ValidateEncoder(encoder string) error {
	if encoder != SupportedEncoder {
		return fmt.Errorf("invalid encoder %q, the only supported encoder is %q", encoder, SupportedEncoder)
	}
	return nil
}

// ValidateTranscoderType validates the transcoder type against the
// broadcast location: passthrough is only legal at a subset of locations.
func ValidateTranscoderType(transcoderType, location string) error {
	if !containsString(TranscoderTypes, transcoderType) {
		return fmt.Errorf("invalid transcoder_type %q", transcoderType)
	}
	if transcoderType == "passthrough" && !containsString(PassthroughLocations, location) {
		return fmt.Errorf("transcoder_type passthrough is not available in broadcast location %q", location)
	}
	return nil
}

func is16by9(width, height int) bool {
	return height*16/9 == width
}

func is4by3(width, height int) bool {
	return height*4/3 == width
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
