package channelmap

import (
	"encoding/json"
	"fmt"
)

// Source selects where the channel tables are read from.
type Source int

const (
	SourceFile Source = iota
	SourceDB
)

var sourceStrings = []string{
	"file",
	"db",
}

func (s Source) String() string {
	if s < SourceFile || s > SourceDB {
		return "UNKNOWN"
	}
	return sourceStrings[s]
}

func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Source) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	for i, v := range sourceStrings {
		if v == str {
			*s = Source(i)
			return nil
		}
	}
	return fmt.Errorf("invalid Source: %s", str)
}

// MapFormat selects the layout of the channel table.
type MapFormat int

const (
	// FormatFDHD is the flat WIB table plus a crate list.
	FormatFDHD MapFormat = iota
	// FormatElectronics is the table keyed by detector id, crate, slot and stream.
	FormatElectronics
)

var mapFormatStrings = []string{
	"fdhd",
	"electronics",
}

func (f MapFormat) String() string {
	if f < FormatFDHD || f > FormatElectronics {
		return "UNKNOWN"
	}
	return mapFormatStrings[f]
}

func (f MapFormat) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *MapFormat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, v := range mapFormatStrings {
		if v == s {
			*f = MapFormat(i)
			return nil
		}
	}
	return fmt.Errorf("invalid MapFormat: %s", s)
}

// ReadoutVariant tags the detector layout used to number wires.
type ReadoutVariant int

const (
	ReadoutAPA ReadoutVariant = iota
	ReadoutCRU
	ReadoutCRP
	ReadoutColdBox
)

var readoutVariantStrings = []string{
	"apa",
	"cru",
	"crp",
	"coldbox",
}

func (v ReadoutVariant) String() string {
	if v < ReadoutAPA || v > ReadoutColdBox {
		return "UNKNOWN"
	}
	return readoutVariantStrings[v]
}

func (v ReadoutVariant) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *ReadoutVariant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseReadoutVariant(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseReadoutVariant maps a name such as "crp" to its variant.
func ParseReadoutVariant(s string) (ReadoutVariant, error) {
	for i, v := range readoutVariantStrings {
		if v == s {
			return ReadoutVariant(i), nil
		}
	}
	return ReadoutAPA, fmt.Errorf("invalid ReadoutVariant: %s", s)
}
