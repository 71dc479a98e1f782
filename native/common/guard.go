package common

import "errors"

// ErrModulePaused is returned when an administrative pause switch blocks the
// requested module.
var ErrModulePaused = errors.New("module paused")

// PauseView reports the live pause switches the node operator controls.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the named module is paused. A nil view or an
// empty module name disables the check.
func Guard(view PauseView, module string) error {
	if view == nil || module == "" {
		return nil
	}
	if view.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
