package outline

import "fmt"

// Kind classifies a block by its head.
type Kind uint8

const (
	KindSuite Kind = iota
	KindTest
	KindInner
)

func (k Kind) String() string {
	switch k {
	case KindSuite:
		return "suite"
	case KindTest:
		return "test"
	case KindInner:
		return "inner"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// BlockID indexes Outline.Blocks.
type BlockID int

// NoBlock marks "no enclosing block".
const NoBlock BlockID = -1

// Block is one bracket-delimited region opened by a head line.
type Block struct {
	ID       BlockID
	Kind     Kind
	Head     string // keyword for suites and tests
	Title    string // first string literal of the head line
	Text     string // trimmed head line
	OpenLine int    // 0-based
	// BodyLine is the line whose trailing opener starts the body. It differs
	// from OpenLine only for heads spread over several lines.
	BodyLine   int
	Indent     int // columns
	Parent     BlockID
	Closed     bool
	CloseLine  int // valid when Closed
	CloseToken string
}

// EventKind enumerates outline events.
type EventKind uint8

const (
	// EventOpen pushes Block.
	EventOpen EventKind = iota
	// EventClose pops Block with a close line at its indentation.
	EventClose
	// EventContinue pushes Block on a line that also closed its predecessor,
	// e.g. `} else {`.
	EventContinue
	// EventStray is a close line that matched no open block at its
	// indentation; nothing was popped.
	EventStray
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventClose:
		return "close"
	case EventContinue:
		return "continue"
	case EventStray:
		return "stray"
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is a structural step of the scan, in line order.
type Event struct {
	Kind   EventKind
	Line   int
	Indent int
	Block  BlockID // NoBlock for strays
}

// Opens reports whether the event pushes a block.
func (e Event) Opens() bool { return e.Kind == EventOpen || e.Kind == EventContinue }

// Outline is the structural record of one file.
type Outline struct {
	Lines  []string
	Style  IndentStyle
	Blocks []Block
	Events []Event
	// Enclosing[i] is the innermost open block after line i was scanned.
	Enclosing []BlockID
	// Open is the stack left at end of file, outermost first.
	Open []BlockID
}

// Block returns the block by id or nil.
func (o *Outline) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(o.Blocks) {
		return nil
	}
	return &o.Blocks[id]
}

// Strays counts close lines that matched nothing.
func (o *Outline) Strays() int {
	n := 0
	for _, ev := range o.Events {
		if ev.Kind == EventStray {
			n++
		}
	}
	return n
}

// Balanced reports an empty stack at end of file and no stray closes.
func (o *Outline) Balanced() bool {
	return len(o.Open) == 0 && o.Strays() == 0
}

// StackAt returns the open blocks after line, outermost first.
func (o *Outline) StackAt(line int) []BlockID {
	if line < 0 || line >= len(o.Enclosing) {
		return nil
	}
	var rev []BlockID
	for id := o.Enclosing[line]; id != NoBlock; id = o.Blocks[id].Parent {
		rev = append(rev, id)
	}
	out := make([]BlockID, len(rev))
	for i, id := range rev {
		out[len(rev)-1-i] = id
	}
	return out
}

// Depth is the stack depth after line.
func (o *Outline) Depth(line int) int {
	if line < 0 || line >= len(o.Enclosing) {
		return 0
	}
	d := 0
	for id := o.Enclosing[line]; id != NoBlock; id = o.Blocks[id].Parent {
		d++
	}
	return d
}

// Level converts a block's column indentation into nesting units.
func (o *Outline) Level(id BlockID) int {
	b := o.Block(id)
	if b == nil {
		return 0
	}
	return b.Indent / o.Style.unit()
}

// Children returns direct children of id in source order.
func (o *Outline) Children(id BlockID) []BlockID {
	var out []BlockID
	for i := range o.Blocks {
		if o.Blocks[i].Parent == id {
			out = append(out, o.Blocks[i].ID)
		}
	}
	return out
}

// CountsByLevel returns, per nesting level, how many blocks open and how
// many of them are closed.
func (o *Outline) CountsByLevel() (opens, closes map[int]int) {
	opens = make(map[int]int)
	closes = make(map[int]int)
	for i := range o.Blocks {
		lvl := o.Level(o.Blocks[i].ID)
		opens[lvl]++
		if o.Blocks[i].Closed {
			closes[lvl]++
		}
	}
	return opens, closes
}
