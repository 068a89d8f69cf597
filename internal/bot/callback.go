package bot

import "strings"

// CallbackIntent is the closed set of inline-button actions, decoded once
// at the boundary so flow handlers never prefix-match raw payloads.
type CallbackIntent int

const (
	IntentUnknown CallbackIntent = iota
	IntentDescManual
	IntentDescAuto
	IntentDescSkip
	IntentExportAll
	IntentExportRange
	IntentEmailAll
	IntentEmailRange
)

// Callback payloads. Kept as stable wire strings so in-flight keyboards
// survive a deploy.
const (
	callbackDescManual  = "desc_manual"
	callbackDescAuto    = "desc_auto"
	callbackDescSkip    = "desc_skip"
	callbackExportAll   = "export_all"
	callbackExportRange = "export_range"
	callbackEmailAll    = "email_all"
	callbackEmailRange  = "email_range"
)

// decodeCallback maps a raw payload to its intent. Prefix matching keeps
// compatibility with older keyboards that appended the user ID.
func decodeCallback(data string) CallbackIntent {
	switch {
	case strings.HasPrefix(data, callbackDescManual):
		return IntentDescManual
	case strings.HasPrefix(data, callbackDescAuto):
		return IntentDescAuto
	case strings.HasPrefix(data, callbackDescSkip):
		return IntentDescSkip
	case strings.HasPrefix(data, callbackExportAll):
		return IntentExportAll
	case strings.HasPrefix(data, callbackExportRange):
		return IntentExportRange
	case strings.HasPrefix(data, callbackEmailAll):
		return IntentEmailAll
	case strings.HasPrefix(data, callbackEmailRange):
		return IntentEmailRange
	default:
		return IntentUnknown
	}
}
