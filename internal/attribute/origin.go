package attribute

// Origin tags where an attribute's raw state came from, and so how it is cast.
type Origin uint8

const (
	// Uninitialized attributes have no raw value and never cast.
	Uninitialized Origin = iota
	// FromDatabase raw values are cast with Type.CastFromDatabase.
	FromDatabase
	// FromUser raw values are cast with Type.CastFromUser.
	FromUser
	// WithCastValue attributes hold an already cast value.
	WithCastValue
)

var originNames = [...]string{
	Uninitialized: "uninitialized",
	FromDatabase:  "database",
	FromUser:      "user",
	WithCastValue: "cast",
}

func (origin Origin) String() string {
	if int(origin) < len(originNames) {
		return originNames[origin]
	}
	return "unknown"
}

// ParseOrigin is the inverse of Origin.String.
func ParseOrigin(name string) (origin Origin, ok bool) {
	for i, candidate := range originNames {
		if candidate == name {
			origin = Origin(i)
			ok = true
			return
		}
	}
	return
}
