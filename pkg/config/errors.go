package config

import "errors"

// ErrPresetNotFound indicates a preset name that does not exist in the
// current configuration document.
var ErrPresetNotFound = errors.New("preset not found")
