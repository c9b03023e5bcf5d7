// Package trace parses memory access traces and replays them against a
// cache simulator.
//
// A trace holds one record per line:
//
//	 <op> <hex-address>,<decimal-size>
//
// where op is I (instruction fetch), L (load), S (store) or M (modify).
package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Op is the operation code of a trace record.
type Op byte

const (
	// OpInstruction is an instruction fetch. It never reaches the cache.
	OpInstruction Op = 'I'
	// OpLoad is a data load.
	OpLoad Op = 'L'
	// OpStore is a data store.
	OpStore Op = 'S'
	// OpModify is a load followed by a store to the same address.
	OpModify Op = 'M'
)

func (o Op) String() string {
	return string(rune(o))
}

// Accesses returns the number of cache accesses a record with this op
// performs. Unknown ops perform none.
func (o Op) Accesses() int {
	switch o {
	case OpLoad, OpStore:
		return 1
	case OpModify:
		return 2
	default:
		return 0
	}
}

// ErrMalformedRecord is returned by ParseLine when a line is not a record.
var ErrMalformedRecord = errors.New("malformed trace record")

// Record is one parsed trace line.
type Record struct {
	Op   Op
	Addr uint64
	Size uint32
}

// String formats the record the way it appears in a trace, without the
// leading space.
func (r Record) String() string {
	return fmt.Sprintf("%s %x,%d", r.Op, r.Addr, r.Size)
}

// ParseLine parses a single trace line. Whitespace around the line and
// around the comma is accepted. Whitespace inside the address or size, or
// trailing text, makes the line malformed. The op code is not checked against the known
// codes.
func ParseLine(line string) (Record, error) {
	line = strings.TrimSpace(line)

	i := strings.IndexAny(line, " \t")
	if i != 1 {
		return Record{}, ErrMalformedRecord
	}

	addrText, sizeText, ok := strings.Cut(strings.TrimSpace(line[i:]), ",")
	if !ok {
		return Record{}, ErrMalformedRecord
	}
	addrText = strings.TrimSpace(addrText)
	sizeText = strings.TrimSpace(sizeText)

	addr, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: address %q", ErrMalformedRecord, addrText)
	}

	size, err := strconv.ParseUint(sizeText, 10, 32)
	if err != nil {
		return Record{}, fmt.Errorf("%w: size %q", ErrMalformedRecord, sizeText)
	}

	return Record{
		Op:   Op(line[0]),
		Addr: addr,
		Size: uint32(size),
	}, nil
}
