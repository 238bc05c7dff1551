package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTheme(t *testing.T) {
	for _, name := range themeOrder {
		assert.Equal(t, name, GetTheme(name).Name)
	}
	assert.Equal(t, "Nightfox", GetTheme("Unknown").Name, "unknown names fall back")
}

func TestNextTheme_Cycles(t *testing.T) {
	seen := map[string]bool{}
	name := themeOrder[0]
	for range themeOrder {
		seen[name] = true
		name = NextTheme(name)
	}
	assert.Equal(t, themeOrder[0], name)
	assert.Len(t, seen, len(themeOrder))
	assert.Equal(t, themeOrder[0], NextTheme("Unknown"))
}

func TestThemes_DefineItemBadges(t *testing.T) {
	for _, name := range themeOrder {
		th := GetTheme(name)
		for _, state := range []string{"available", "archived", "mine", "untrusted"} {
			require.NotEmpty(t, th.BadgeColors[state], "%s: badge %s", name, state)
		}
		assert.Contains(t, th.Styles().Badge("archived"), "archived")
	}
}
