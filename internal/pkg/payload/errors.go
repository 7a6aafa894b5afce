package payload

import "errors"

var (
	ErrUnrecognizedPayload      = errors.New("unrecognized payload")
	ErrUnresolvableConversation = errors.New("unresolvable conversation")
	ErrNoIdentifier             = errors.New("status update carries no identifier")
	ErrInvalidStatus            = errors.New("invalid status value")
)
