package domain

import "errors"

var (
	ErrUnknownTown          = errors.New("no such town")
	ErrUnknownPlayer        = errors.New("player not found")
	ErrUnknownSession       = errors.New("session not found")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrUnknownPlaceableType = errors.New("cannot add: given id for placeable that does not exist")
	ErrCellOccupied         = errors.New("cannot add: placeable already at specified location")
	ErrNothingToDelete      = errors.New("cannot delete: no placeable to delete at specified location")
	ErrInvalidInput         = errors.New("invalid input")
)
