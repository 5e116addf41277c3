package tokens

import "errors"

var (
	// ErrPresetNotFound indicates the named preset does not exist in the
	// current configuration.
	ErrPresetNotFound = errors.New("preset not found")

	// ErrOIDCDisabled indicates the preset exists but has no enabled
	// identity configuration, so no tokens can be minted for it.
	ErrOIDCDisabled = errors.New("oidc not enabled for preset")
)

// PresetError wraps a token operation failure with the preset it concerns.
type PresetError struct {
	Preset string
	Err    error
}

func (e *PresetError) Error() string {
	return "preset " + e.Preset + ": " + e.Err.Error()
}

func (e *PresetError) Unwrap() error {
	return e.Err
}
