package command

import (
	"fmt"
	"strings"
)

// Kind identifies a recognized command. The set is closed; anything the
// signature table does not match is KindUnknown.
type Kind int

const (
	KindUnknown Kind = iota
	KindNmeaSwitch
	KindIdentification
	KindCount
	KindModel
	KindRead
	KindWrite
	KindTime
	KindPurge1
	KindPurge2
	KindUnknownWrite1
	KindUnknownWrite2
	KindUnknownWrite3
)

var kindNames = [...]string{
	KindUnknown:        "Unknown",
	KindNmeaSwitch:     "NmeaSwitchCommand",
	KindIdentification: "IdentificationCommand",
	KindCount:          "CountCommand",
	KindModel:          "ModelCommand",
	KindRead:           "ReadCommand",
	KindWrite:          "WriteCommand",
	KindTime:           "TimeCommand",
	KindPurge1:         "UnknownPurgeCommand1",
	KindPurge2:         "UnknownPurgeCommand2",
	KindUnknownWrite1:  "UnknownWriteCommand1",
	KindUnknownWrite2:  "UnknownWriteCommand2",
	KindUnknownWrite3:  "UnknownWriteCommand3",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds lists every recognized kind followed by KindUnknown.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindNmeaSwitch; int(k) < len(kindNames); k++ {
		out = append(out, k)
	}
	return append(out, KindUnknown)
}

// Field is one decoded value. Value holds the integer form; Text is how the
// device tooling prints it.
type Field struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
	Text  string `json:"text"`
	// Response is set for fields taken from the device response rather
	// than from the query.
	Response bool `json:"response,omitempty"`
}

// Record is one decoded command.
type Record struct {
	Kind   Kind
	Fields []Field
	Query  []byte
	Status int16
	// Err is set when the response was too short for the kind's layout.
	Err string
}

func (r Record) Name() string {
	return r.Kind.String()
}

func (r Record) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// BlockWrite reports whether the command announces raw payload packets.
func (r Record) BlockWrite() bool {
	return r.Kind == KindWrite
}

// RawPackets is the number of 7-byte payload packets that follow a
// block-write.
func (r Record) RawPackets() int {
	if !r.BlockWrite() {
		return 0
	}
	f, ok := r.Field("size")
	if !ok {
		return 0
	}
	return int((f.Value + RawPacketSize - 1) / RawPacketSize)
}

// Call renders the query-side fields the way a constructor call reads:
// WriteCommand(mode = 0x02, pos = 0x001000, size = 0x0010).
func (r Record) Call() string {
	var args []string
	for _, f := range r.Fields {
		if f.Response {
			continue
		}
		args = append(args, f.Name+" = "+f.Text)
	}
	return r.Name() + "(" + strings.Join(args, ", ") + ")"
}

// Results renders the response-side fields, one "name() -> text" per entry.
func (r Record) Results() []string {
	var out []string
	for _, f := range r.Fields {
		if f.Response {
			out = append(out, f.Name+"() -> "+f.Text)
		}
	}
	return out
}
