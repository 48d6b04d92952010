package tdf

import "fmt"

// UnexpectedEOFError is returned when a read operation runs past the end of
// the decode buffer.
type UnexpectedEOFError struct {
	Cursor    int
	Wanted    int
	Remaining int
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("tdf: unexpected eof at cursor=%d wanted=%d remaining=%d", e.Cursor, e.Wanted, e.Remaining)
}

// InvalidTypeError is returned when a decoded type byte does not match what
// the caller expected (e.g. reading a list header against a map).
type InvalidTypeError struct {
	Expected Type
	Actual   Type
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("tdf: invalid type: expected %s, got %s", e.Expected, e.Actual)
}

// InvalidTagTypeError is returned when a tag's value type does not match
// the type the caller asked to decode it as.
type InvalidTagTypeError struct {
	Tag      string
	Expected Type
	Actual   Type
}

func (e *InvalidTagTypeError) Error() string {
	return fmt.Sprintf("tdf: tag %q: invalid type: expected %s, got %s", e.Tag, e.Expected, e.Actual)
}

// MissingTagError is returned when decode-until-tag exhausts the group
// without finding the requested tag.
type MissingTagError struct {
	Tag      string
	Expected Type
}

func (e *MissingTagError) Error() string {
	return fmt.Sprintf("tdf: missing tag %q (expected %s)", e.Tag, e.Expected)
}

// InvalidUTF8Error is returned when a decoded string is not valid UTF-8.
type InvalidUTF8Error struct {
	Tag string
}

func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("tdf: tag %q: invalid utf-8", e.Tag)
}
