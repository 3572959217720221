package efb

import "errors"

// Configuration errors.
var (
	ErrMissingField          = errors.New("missing configuration field")
	ErrUnknownDensity        = errors.New("unknown device density")
	ErrUnsupportedPeripheral = errors.New("unsupported peripheral")
	ErrUFMWindow             = errors.New("UFM window outside the device")
	ErrMemFormat             = errors.New("malformed memory file")
)
