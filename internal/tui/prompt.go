package tui

import (
	"errors"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// Confirm shows a yes/no prompt. The default answer is "no".
func Confirm(title, description string) (bool, error) {
	var confirmed bool
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)
	if description != "" {
		field = field.Description(description)
	}

	err := huh.NewForm(huh.NewGroup(field)).
		WithTheme(currentThemeOrDefault()).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}

// IsAborted reports whether err comes from the user cancelling a prompt
// with ctrl+c or esc.
func IsAborted(err error) bool {
	return errors.Is(err, huh.ErrUserAborted)
}

// WithSpinner runs action while a spinner with the given title is shown.
// Outside a terminal the action runs without decoration.
func WithSpinner(title string, action func() error) error {
	if !IsTTY() {
		return action()
	}

	var actionErr error
	err := spinner.New().
		Title(title).
		Action(func() { actionErr = action() }).
		Run()
	if err != nil {
		return err
	}
	return actionErr
}
