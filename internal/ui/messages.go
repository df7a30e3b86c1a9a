package ui

// PartialTimeoutMsg fires when a pending sequence has waited long enough.
// Seq identifies the keystroke that scheduled it; stale timeouts are ignored.
type PartialTimeoutMsg struct {
	Seq int
}

// KeymapChangedMsg is sent when the watched user keymap changes on disk.
type KeymapChangedMsg struct {
	Path string
}

// WatchErrMsg is sent when the keymap watcher stops with an error.
type WatchErrMsg struct {
	Err error
}
