package emulator

import (
	"fmt"
	"sort"
	"strings"
)

// Button is a canonical Game Boy joypad button name.
type Button string

const (
	ButtonA      Button = "A"
	ButtonB      Button = "B"
	ButtonStart  Button = "START"
	ButtonSelect Button = "SELECT"
	ButtonUp     Button = "UP"
	ButtonDown   Button = "DOWN"
	ButtonLeft   Button = "LEFT"
	ButtonRight  Button = "RIGHT"
)

var validButtons = map[Button]struct{}{
	ButtonA:      {},
	ButtonB:      {},
	ButtonStart:  {},
	ButtonSelect: {},
	ButtonUp:     {},
	ButtonDown:   {},
	ButtonLeft:   {},
	ButtonRight:  {},
}

// ParseButton canonicalizes a button name. Input is case-insensitive;
// the returned Button is upper case.
func ParseButton(name string) (Button, error) {
	b := Button(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := validButtons[b]; !ok {
		return "", fmt.Errorf("invalid button %q. Valid buttons are: %s", name, buttonList())
	}
	return b, nil
}

func buttonList() string {
	names := make([]string, 0, len(validButtons))
	for b := range validButtons {
		names = append(names, string(b))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
