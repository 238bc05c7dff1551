package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type formField struct {
	label string
	input textinput.Model
}

// form is a stack of labelled text inputs with one focused field.
type form struct {
	fields []formField
	focus  int
	active bool
}

func newInput(placeholder string, limit int, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = ""
	// A static cursor keeps focus changes from scheduling blink ticks.
	_ = ti.Cursor.SetMode(cursor.CursorStatic)
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func field(label, placeholder string, limit int, secret bool) formField {
	return formField{label: label, input: newInput(placeholder, limit, secret)}
}

func newForm(fields ...formField) form {
	return form{fields: fields}
}

// open activates the form and focuses field i.
func (f *form) open(i int) tea.Cmd {
	f.active = true
	return f.focusOn(i)
}

func (f *form) close() {
	f.active = false
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
}

func (f *form) reset() {
	for i := range f.fields {
		f.fields[i].input.SetValue("")
	}
	f.focus = 0
}

func (f *form) focusOn(i int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.focus = clampIndex(i, len(f.fields))
	for j := range f.fields {
		if j != f.focus {
			f.fields[j].input.Blur()
		}
	}
	return f.fields[f.focus].input.Focus()
}

func (f *form) next() tea.Cmd { return f.focusOn((f.focus + 1) % max(len(f.fields), 1)) }

func (f *form) prev() tea.Cmd {
	n := max(len(f.fields), 1)
	return f.focusOn((f.focus - 1 + n) % n)
}

func (f *form) onLast() bool { return f.focus >= len(f.fields)-1 }

func (f *form) value(i int) string {
	if i < 0 || i >= len(f.fields) {
		return ""
	}
	return f.fields[i].input.Value()
}

func (f *form) set(i int, v string) {
	if i >= 0 && i < len(f.fields) {
		f.fields[i].input.SetValue(v)
	}
}

// update routes a message to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if !f.active || len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f form) view(styles Styles) string {
	labelWidth := 0
	for _, fl := range f.fields {
		labelWidth = max(labelWidth, len([]rune(fl.label)))
	}
	var b strings.Builder
	for i, fl := range f.fields {
		label := padRight(fl.label, labelWidth) + "  "
		if f.active && i == f.focus {
			b.WriteString(styles.AccentText.Render("› " + label))
		} else {
			b.WriteString(styles.MutedText.Render("  " + label))
		}
		b.WriteString(fl.input.View())
		if i < len(f.fields)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
