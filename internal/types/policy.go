package types

import "fmt"

// FramePolicy selects what happens when an ID3v2 frame overruns its tag.
type FramePolicy int

const (
	// FramePolicyDrop treats the rest of the tag as padding and keeps the
	// frames parsed so far.
	FramePolicyDrop FramePolicy = iota
	// FramePolicyError fails the file with BrokenFrameError.
	FramePolicyError
)

// String returns the configuration name of the policy.
func (p FramePolicy) String() string {
	if p == FramePolicyError {
		return "error"
	}
	return "drop"
}

// ParseFramePolicy parses "drop" or "error".
func ParseFramePolicy(s string) (FramePolicy, error) {
	switch s {
	case "drop", "":
		return FramePolicyDrop, nil
	case "error":
		return FramePolicyError, nil
	default:
		return FramePolicyDrop, fmt.Errorf("unknown broken frame policy %q", s)
	}
}

// Policy is the configuration threaded through parsing and aggregation.
type Policy struct {
	// PreferredTagVersion is 1 or 2 and picks which ID3 version wins when
	// both carry a unique value.
	PreferredTagVersion int

	// LegacyPresets reports LAME presets by their historical names.
	LegacyPresets bool

	// BrokenFrames decides how an overrunning ID3v2 frame is handled.
	BrokenFrames FramePolicy

	// StrictID3v1 makes a missing ID3v1 trailer an error when one is requested.
	StrictID3v1 bool
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		PreferredTagVersion: 2,
		BrokenFrames:        FramePolicyDrop,
	}
}

// Validate checks the policy values.
func (p Policy) Validate() error {
	if p.PreferredTagVersion != 1 && p.PreferredTagVersion != 2 {
		return fmt.Errorf("preferred tag version must be 1 or 2, got %d", p.PreferredTagVersion)
	}
	return nil
}
