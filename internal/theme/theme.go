// Package theme resolves the console's primary colour and applies it to the
// terminal styles.
package theme

import (
	"fmt"
	"regexp"
	"strings"
)

// Default is the colour the console starts with.
const Default = "light blue"

type Color struct {
	Key string
	Hex string
}

// Palette is the list of named primary colours offered by the settings.
var Palette = []Color{
	{Key: "dusk", Hex: "#F5222D"},
	{Key: "volcanic", Hex: "#FA541C"},
	{Key: "sundial", Hex: "#FAAD14"},
	{Key: "mingqing", Hex: "#13C2C2"},
	{Key: "aurora green", Hex: "#52C41A"},
	{Key: "light blue", Hex: "#1890FF"},
	{Key: "blue", Hex: "#2F54EB"},
	{Key: "purple", Hex: "#722ED1"},
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Resolve maps a palette key or a #rrggbb value to its hex form.
func Resolve(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		v = Default
	}
	if hexColor.MatchString(v) {
		return strings.ToUpper(v), nil
	}
	for _, c := range Palette {
		if strings.EqualFold(c.Key, v) {
			return c.Hex, nil
		}
	}
	return "", fmt.Errorf("unknown colour %q: use #rrggbb or one of: %s", v, strings.Join(Names(), ", "))
}

func Names() []string {
	out := make([]string, len(Palette))
	for i, c := range Palette {
		out[i] = c.Key
	}
	return out
}

// Applier is anything that can repaint itself with a new primary colour.
type Applier interface {
	ApplyTheme(primary string) error
}
