package protocol

import jsoniter "github.com/json-iterator/go"

// jsonx is the codec used throughout the translation layer. It is a drop-in,
// faster replacement for encoding/json used by the rest of this package for
// the exhaustive JSON shape handling the translators do on every request.
var jsonx = jsoniter.ConfigCompatibleWithStandardLibrary
