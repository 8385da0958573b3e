package ipmapper

// PresetDirectConnection configures classification for clients that connect
// to the application directly.
//
// Proxy headers are ignored, so the classified address cannot be forged by the
// client.
func PresetDirectConnection() Option {
	return WithForwardedHeader("")
}

// PresetReverseProxy configures classification behind a reverse proxy that
// places the real client address first in header (for example
// "X-Forwarded-For" or "X-Real-IP").
func PresetReverseProxy(header string) Option {
	return WithForwardedHeader(header)
}

// PresetMappingFile configures the usual deployment: blocks from path,
// classification emitted in headerName.
func PresetMappingFile(path, headerName string) Option {
	return func(c *config) error {
		return applyOptions(c,
			WithMappingFile(path),
			WithHeaderName(headerName),
		)
	}
}
