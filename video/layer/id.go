package layer

import (
	"fmt"

	"chromakey/video/chroma"
)

// ID identifies one overlay layer. IDs are resolved from names once, at
// configuration load.
type ID int

const (
	Red ID = iota
	Green
	Blue
	Yellow

	// Count is the number of known layer IDs.
	Count = int(Yellow) + 1
)

var names = [Count]string{"red", "green", "blue", "yellow"}

// Default threshold windows, one per ID.
var defaultWindows = [Count]chroma.Window{
	Red:    {HMin: 340, HMax: 20, SMin: 0.4, SMax: 1, VMin: 0.3, VMax: 1},
	Green:  {HMin: 70, HMax: 170, SMin: 0.4, SMax: 1, VMin: 0.3, VMax: 1},
	Blue:   {HMin: 190, HMax: 270, SMin: 0.4, SMax: 1, VMin: 0.3, VMax: 1},
	Yellow: {HMin: 30, HMax: 80, SMin: 0.4, SMax: 1, VMin: 0.3, VMax: 1},
}

// IDs returns every known ID in default order.
func IDs() []ID {
	return []ID{Red, Green, Blue, Yellow}
}

func (id ID) Valid() bool {
	return id >= 0 && int(id) < Count
}

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("layer(%d)", int(id))
	}
	return names[id]
}

// DefaultWindow returns the built-in threshold window for id.
func (id ID) DefaultWindow() chroma.Window {
	if !id.Valid() {
		return chroma.Window{}
	}
	return defaultWindows[id]
}

// ParseID resolves a layer name such as "red".
func ParseID(name string) (ID, error) {
	for i, n := range names {
		if n == name {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
}

func (id ID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLayer, int(id))
	}
	return []byte(names[id]), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	v, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
