// Package toolcode generates and decodes the 6-digit tool identifiers used
// on the shop floor.
//
// Code layout:
//
//	digit 1    cutting position (1=Bottom 2=Top 3=Right 4=Left)
//	digit 2    tool type (0=Straight 1=Profile)
//	digits 3-5 profile ID, zero padded (001-999)
//	digit 6    set number (1-9)
//
// Tools sharing the first five digits belong to the same set.
package toolcode

import (
	"fmt"
	"strconv"
)

// Positions, in head-mapping order.
const (
	PositionBottom = "Bottom"
	PositionTop    = "Top"
	PositionRight  = "Right"
	PositionLeft   = "Left"
)

// Tool types.
const (
	TypeStraight = "Straight"
	TypeProfile  = "Profile"
)

var positionDigits = map[string]byte{
	PositionBottom: '1',
	PositionTop:    '2',
	PositionRight:  '3',
	PositionLeft:   '4',
}

var digitPositions = map[byte]string{
	'1': PositionBottom,
	'2': PositionTop,
	'3': PositionRight,
	'4': PositionLeft,
}

var typeDigits = map[string]byte{
	TypeStraight: '0',
	TypeProfile:  '1',
}

var digitTypes = map[byte]string{
	'0': TypeStraight,
	'1': TypeProfile,
}

// Parts is the decoded form of a tool code.
type Parts struct {
	Position  string
	Type      string
	ProfileID int64
	SetNumber int
}

// Generate builds the 6-digit code for the given parts.
func Generate(profileID int64, position, toolType string, setNumber int) (string, error) {
	if profileID < 1 || profileID > 999 {
		return "", fmt.Errorf("profile ID must be 1-999, got %d", profileID)
	}
	posDigit, ok := positionDigits[position]
	if !ok {
		return "", fmt.Errorf("invalid position %q", position)
	}
	typeDigit, ok := typeDigits[toolType]
	if !ok {
		return "", fmt.Errorf("invalid tool type %q", toolType)
	}
	if setNumber < 1 || setNumber > 9 {
		return "", fmt.Errorf("set number must be 1-9, got %d", setNumber)
	}
	return fmt.Sprintf("%c%c%03d%d", posDigit, typeDigit, profileID, setNumber), nil
}

// Decode parses a 6-digit code back into its parts.
func Decode(code string) (Parts, error) {
	if len(code) != 6 {
		return Parts{}, fmt.Errorf("tool code must be 6 digits, got %q", code)
	}
	position, ok := digitPositions[code[0]]
	if !ok {
		return Parts{}, fmt.Errorf("invalid position digit in %q", code)
	}
	toolType, ok := digitTypes[code[1]]
	if !ok {
		return Parts{}, fmt.Errorf("invalid type digit in %q", code)
	}
	profileID, err := strconv.ParseInt(code[2:5], 10, 64)
	if err != nil {
		return Parts{}, fmt.Errorf("invalid profile digits in %q", code)
	}
	setNumber, err := strconv.Atoi(code[5:])
	if err != nil {
		return Parts{}, fmt.Errorf("invalid set digit in %q", code)
	}
	if profileID < 1 || setNumber < 1 {
		return Parts{}, fmt.Errorf("out-of-range fields in %q", code)
	}
	return Parts{Position: position, Type: toolType, ProfileID: profileID, SetNumber: setNumber}, nil
}

// Valid reports whether code is a well-formed tool code.
func Valid(code string) bool {
	_, err := Decode(code)
	return err == nil
}

// SetPrefix returns the five digits shared by all tools of a set.
func SetPrefix(code string) string {
	if len(code) != 6 {
		return ""
	}
	return code[:5]
}

// ValidPosition reports whether p names a cutting position.
func ValidPosition(p string) bool {
	_, ok := positionDigits[p]
	return ok
}

// ValidType reports whether t names a tool type.
func ValidType(t string) bool {
	_, ok := typeDigits[t]
	return ok
}
