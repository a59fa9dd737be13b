package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xlttj/sshtun/pkg/config"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Form field indexes. Order matters: it is the tab order.
const (
	fieldName = iota
	fieldServer
	fieldLocalIP
	fieldLocalPort
	fieldRemoteIP
	fieldRemotePort
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Name",
	"SSH Server",
	"Local IP",
	"Local Port",
	"Remote IP",
	"Remote Port",
}

// tunnelForm holds the add/edit form inputs and per-field validation errors.
// Validation happens here, before anything reaches the store or registry.
type tunnelForm struct {
	inputs [fieldCount]textinput.Model
	errors [fieldCount]string
	focus  int
}

func newTunnelForm() *tunnelForm {
	f := &tunnelForm{}
	for i := range f.inputs {
		ti := textinput.New()
		ti.CharLimit = 128
		ti.Width = 30
		f.inputs[i] = ti
	}
	// Sensible defaults, same as the add dialog always had
	f.inputs[fieldLocalIP].SetValue("127.0.0.1")
	f.inputs[fieldRemoteIP].SetValue("127.0.0.1")
	f.inputs[fieldName].Focus()
	return f
}

// formFromConfig pre-fills a form with an existing definition for editing.
func formFromConfig(cfg config.TunnelConfig) *tunnelForm {
	f := newTunnelForm()
	f.inputs[fieldName].SetValue(cfg.Name)
	f.inputs[fieldServer].SetValue(cfg.SSHServer)
	f.inputs[fieldLocalIP].SetValue(cfg.LocalIP)
	f.inputs[fieldLocalPort].SetValue(strconv.Itoa(cfg.LocalPort))
	f.inputs[fieldRemoteIP].SetValue(cfg.RemoteIP)
	f.inputs[fieldRemotePort].SetValue(strconv.Itoa(cfg.RemotePort))
	return f
}

func (f *tunnelForm) clearErrors() {
	for i := range f.errors {
		f.errors[i] = ""
	}
}

// validate checks all fields and records per-field error messages.
func (f *tunnelForm) validate() bool {
	f.clearErrors()
	valid := true

	required := map[int]string{
		fieldName:     "Name is required",
		fieldServer:   "SSH Server is required",
		fieldLocalIP:  "Local IP is required",
		fieldRemoteIP: "Remote IP is required",
	}
	for field, msg := range required {
		if strings.TrimSpace(f.inputs[field].Value()) == "" {
			f.errors[field] = msg
			valid = false
		}
	}

	for _, field := range []int{fieldLocalPort, fieldRemotePort} {
		if _, err := validatePort(f.inputs[field].Value()); err != nil {
			f.errors[field] = err.Error()
			valid = false
		}
	}

	return valid
}

// validatePort parses and range-checks a port field.
func validatePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("Invalid port number")
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("Port must be between 1 and 65535")
	}
	return port, nil
}

// toConfig builds a definition from the form. Call validate first; port
// parsing cannot fail on a validated form.
func (f *tunnelForm) toConfig() config.TunnelConfig {
	localPort, _ := validatePort(f.inputs[fieldLocalPort].Value())
	remotePort, _ := validatePort(f.inputs[fieldRemotePort].Value())
	return config.TunnelConfig{
		Name:       strings.TrimSpace(f.inputs[fieldName].Value()),
		SSHServer:  strings.TrimSpace(f.inputs[fieldServer].Value()),
		LocalIP:    strings.TrimSpace(f.inputs[fieldLocalIP].Value()),
		LocalPort:  localPort,
		RemoteIP:   strings.TrimSpace(f.inputs[fieldRemoteIP].Value()),
		RemotePort: remotePort,
	}
}

// setFocus moves input focus to the given field index.
func (f *tunnelForm) setFocus(field int) {
	for i := range f.inputs {
		if i == field {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	f.focus = field
}

func (f *tunnelForm) focusNext() {
	f.setFocus((f.focus + 1) % fieldCount)
}

func (f *tunnelForm) focusPrev() {
	f.setFocus((f.focus + fieldCount - 1) % fieldCount)
}

// update forwards a message to the focused input.
func (f *tunnelForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}
