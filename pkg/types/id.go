package types

import "github.com/google/uuid"

// PassID uniquely identifies a QA pass.
type PassID uuid.UUID

// NilPassID is the zero PassID.
var NilPassID = PassID(uuid.Nil)

// NewPassID returns a fresh random PassID.
func NewPassID() PassID {
	return PassID(uuid.New())
}

// ParsePassID parses a PassID from its canonical string form.
func ParsePassID(s string) (PassID, error) {
	u, err := uuid.Parse(s)
	return PassID(u), err
}

func (id PassID) String() string {
	return uuid.UUID(id).String()
}

// ResultID uniquely identifies a recorded step result.
type ResultID uuid.UUID

// NilResultID is the zero ResultID.
var NilResultID = ResultID(uuid.Nil)

// NewResultID returns a fresh random ResultID.
func NewResultID() ResultID {
	return ResultID(uuid.New())
}

// ParseResultID parses a ResultID from its canonical string form.
func ParseResultID(s string) (ResultID, error) {
	u, err := uuid.Parse(s)
	return ResultID(u), err
}

func (id ResultID) String() string {
	return uuid.UUID(id).String()
}
