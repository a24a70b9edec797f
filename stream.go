package audiodir

import (
	"github.com/simonhull/audiodir/internal/dispatch"
	"github.com/simonhull/audiodir/internal/types"
)

// Data model re-exported from internal/types.
type (
	Stream      = types.Stream
	Range       = types.Range
	BitrateType = types.BitrateType
	Namespace   = types.Namespace
	TagValues   = types.TagValues
	Summary     = types.Summary
	Totals      = types.Totals
	BadFile     = types.BadFile
	BadKind     = types.BadKind
	Policy      = types.Policy
	FramePolicy = types.FramePolicy
)

// Bitrate types.
const (
	BitrateUnknown  = types.BitrateUnknown
	BitrateConstant = types.BitrateConstant
	BitrateVariable = types.BitrateVariable
	BitrateLossless = types.BitrateLossless
)

// Tag namespaces.
const (
	NamespaceID3v1  = types.NamespaceID3v1
	NamespaceID3v2  = types.NamespaceID3v2
	NamespaceVorbis = types.NamespaceVorbis
	NamespaceMP4    = types.NamespaceMP4
)

// Broken ID3v2 frame policies.
const (
	FramePolicyDrop  = types.FramePolicyDrop
	FramePolicyError = types.FramePolicyError
)

// Bad file kinds.
const (
	BadDecode      = types.BadDecode
	BadMalformed   = types.BadMalformed
	BadBrokenFrame = types.BadBrokenFrame
	BadNoTag       = types.BadNoTag
	BadUnsupported = types.BadUnsupported
)

// Result is the outcome of inspecting one file: a stream, a spacer or a
// bad file.
type Result = dispatch.Result

// Kind says which field of a Result is set.
type Kind = dispatch.Kind

// Result kinds.
const (
	KindStream = dispatch.KindStream
	KindSpacer = dispatch.KindSpacer
	KindBad    = dispatch.KindBad
)

// DefaultPolicy returns the policy used when no options are given.
func DefaultPolicy() Policy {
	return types.DefaultPolicy()
}
