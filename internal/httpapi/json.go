package httpapi

import jsoniter "github.com/json-iterator/go"

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

func protocolUnmarshal(data []byte, v any) error {
	return codec.Unmarshal(data, v)
}

func protocolMarshal(v any) ([]byte, error) {
	return codec.Marshal(v)
}
