package iio

import "github.com/openiio/goiio/internal/constants"

// Re-exported defaults for applications that want the library's
// built-in tuning without reaching into internal packages.
const (
	DefaultBufferLength   = constants.DefaultBufferLength
	DefaultAttrBufSize    = constants.DefaultAttrBufSize
	MaxAttrSize           = constants.MaxAttrSize
	DefaultBlockCount     = constants.DefaultBlockCount
	DefaultIIODPort       = constants.DefaultIIODPort
	DefaultSerialBaud     = constants.DefaultSerialBaud
	ReconnectMaxRetries   = constants.ReconnectMaxRetries
	DefaultDialTimeout    = constants.DefaultDialTimeout
	DefaultOpTimeout      = constants.DefaultOpTimeout
	ReconnectInitialDelay = constants.ReconnectInitialDelay
	ReconnectMaxDelay     = constants.ReconnectMaxDelay
)
