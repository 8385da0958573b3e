package ipmapper

const (
	securityEventSpoofedHeader        = "spoofed_header"
	securityEventInvalidClientAddress = "invalid_client_address"
	securityEventMalformedRange       = "malformed_range"
	securityEventInvalidBlockName     = "invalid_block_name"
	securityEventEmptyBlock           = "empty_block"
	securityEventClassificationPanic  = "classification_panic"
)

const (
	loadResultSuccess = "success"
	loadResultEmpty   = "empty"
	loadResultFailure = "failure"
)
