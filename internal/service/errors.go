package service

import "errors"

var (
	ErrRoomNotFound            = errors.New("meeting room not found")
	ErrParticipantNotFound     = errors.New("participant not found in this room")
	ErrInvalidStatus           = errors.New("invalid room status")
	ErrCodeGenerationExhausted = errors.New("unable to generate unique meeting code, please try again later")
	ErrInternalServer          = errors.New("internal server error")
)
